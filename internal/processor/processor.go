package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/osmquery/overpass-gen/internal/dictionary"
	"github.com/osmquery/overpass-gen/internal/errors"
	"github.com/osmquery/overpass-gen/internal/history"
	"github.com/osmquery/overpass-gen/internal/observability"
	"github.com/osmquery/overpass-gen/internal/overpass"
)

// GenerateRequest represents an incoming natural language prompt
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Format string `json:"format,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// GenerateResponse represents the generated query result
type GenerateResponse struct {
	Prompt         string                          `json:"prompt"`
	Query          string                          `json:"query"`
	Constraint     overpass.QueryConstraint        `json:"constraint"`
	Diagnostics    []overpass.ValidationDiagnostic `json:"diagnostics,omitempty"`
	CacheHit       bool                            `json:"cache_hit"`
	ProcessingTime time.Duration                   `json:"processing_time,omitempty"`
}

// HistoryStore defines the interface for recording and querying past prompts
type HistoryStore interface {
	Record(ctx context.Context, entry history.Entry) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	FindSimilar(ctx context.Context, prompt string, limit int) ([]history.Entry, error)
}

// QueryGenerator is the main service struct: it orchestrates the pipeline
// from raw prompt to validated query text
type QueryGenerator struct {
	extractor     *PromptExtractor
	resolver      *TagResolver
	geoResolver   *GeographicFilterResolver
	assembler     *overpass.Assembler
	validator     *Validator
	dict          *dictionary.Dictionary
	cache         *redis.Client
	historyStore  HistoryStore
	logger        *observability.Logger
	healthChecker *observability.HealthChecker
	cacheTTL      time.Duration
}

// GeneratorConfig holds configuration for the query generator
type GeneratorConfig struct {
	LookupTimeout time.Duration
	CacheTTL      time.Duration
}

// NewQueryGenerator creates a new query generator instance. lookup, cache
// and historyStore may each be nil; the pipeline degrades gracefully
// without them.
func NewQueryGenerator(dict *dictionary.Dictionary, lookup TagLookup, cache *redis.Client, historyStore HistoryStore, config GeneratorConfig) *QueryGenerator {
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	return &QueryGenerator{
		extractor:    NewPromptExtractor(dict),
		resolver:     NewTagResolver(dict, lookup, config.LookupTimeout),
		geoResolver:  NewGeographicFilterResolver(),
		assembler:    overpass.NewAssembler(),
		validator:    NewValidator(),
		dict:         dict,
		cache:        cache,
		historyStore: historyStore,
		logger:       observability.NewLogger("query-generator"),
		cacheTTL:     config.CacheTTL,
	}
}

// SetHealthChecker sets the health checker for the generator
func (qg *QueryGenerator) SetHealthChecker(healthChecker *observability.HealthChecker) {
	qg.healthChecker = healthChecker
}

// Generate runs the full pipeline: extract, resolve, assemble, validate.
// Results are cached by prompt and output format since rendering is
// deterministic.
func (qg *QueryGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()

	qg.logger.Info(ctx, "Generating query", map[string]interface{}{
		"prompt": req.Prompt,
		"format": req.Format,
	})

	var errorType string
	var response *GenerateResponse
	var processingErr error

	defer func() {
		duration := time.Since(start)
		success := processingErr == nil
		cached := response != nil && response.CacheHit
		observability.RecordGenerationMetrics(duration, success, cached, errorType)

		if processingErr != nil {
			qg.logger.Error(ctx, "Query generation failed", processingErr, map[string]interface{}{
				"prompt":      req.Prompt,
				"duration_ms": duration.Milliseconds(),
				"error_type":  errorType,
			})
		} else {
			qg.logger.Info(ctx, "Query generated successfully", map[string]interface{}{
				"prompt":      req.Prompt,
				"duration_ms": duration.Milliseconds(),
				"cache_hit":   cached,
				"diagnostics": len(response.Diagnostics),
			})
		}
	}()

	format, err := overpass.ParseOutputFormat(req.Format)
	if err != nil {
		errorType = errorLabel(errors.ErrCodeInvalidOutputFormat)
		processingErr = errors.NewInvalidOutputFormatError(req.Format)
		return nil, processingErr
	}

	if cachedResult, err := qg.getCachedResult(ctx, req.Prompt, format); err == nil {
		qg.logger.Debug(ctx, "Cache hit for prompt", map[string]interface{}{
			"prompt": req.Prompt,
		})
		cachedResult.CacheHit = true
		cachedResult.ProcessingTime = time.Since(start)
		response = cachedResult
		return cachedResult, nil
	}

	parsed, err := qg.extractor.Extract(req.Prompt)
	if err != nil {
		errorType = errorLabel(errors.CodeOf(err))
		processingErr = err
		return nil, processingErr
	}

	// Tag and geographic resolution are independent of each other; both
	// read only the parsed prompt.
	resolution, err := qg.resolver.Resolve(ctx, parsed)
	if err != nil {
		errorType = errorLabel(errors.CodeOf(err))
		processingErr = err
		return nil, processingErr
	}

	filter, err := qg.geoResolver.Resolve(parsed)
	if err != nil {
		errorType = errorLabel(errors.CodeOf(err))
		processingErr = err
		return nil, processingErr
	}

	constraint := overpass.NewQueryConstraint(resolution.Tags, nil, filter, format)
	rendered := qg.assembler.Render(constraint)

	validated, err := qg.validator.Validate(rendered, constraint, resolution.Diagnostics)
	if err != nil {
		errorType = errorLabel(errors.CodeOf(err))
		processingErr = err
		return nil, processingErr
	}

	response = &GenerateResponse{
		Prompt:         req.Prompt,
		Query:          validated.Query,
		Constraint:     validated.Constraint,
		Diagnostics:    validated.Diagnostics,
		CacheHit:       false,
		ProcessingTime: time.Since(start),
	}

	if err := qg.cacheResult(ctx, req.Prompt, format, response); err != nil {
		qg.logger.Warn(ctx, "Failed to cache generated query", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if qg.historyStore != nil {
		entry := history.Entry{
			Prompt:    req.Prompt,
			Query:     validated.Query,
			Format:    string(format),
			UserID:    req.UserID,
			CreatedAt: time.Now().UTC(),
		}
		if err := qg.historyStore.Record(ctx, entry); err != nil {
			qg.logger.Warn(ctx, "Failed to record prompt in history", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return response, nil
}

// getCachedResult retrieves a previously generated query
func (qg *QueryGenerator) getCachedResult(ctx context.Context, prompt string, format overpass.OutputFormat) (*GenerateResponse, error) {
	if qg.cache == nil {
		return nil, redis.Nil
	}
	cached, err := qg.cache.Get(ctx, cacheKey(prompt, format)).Result()
	if err != nil {
		return nil, err
	}

	var response GenerateResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// cacheResult stores a generated query in cache
func (qg *QueryGenerator) cacheResult(ctx context.Context, prompt string, format overpass.OutputFormat, response *GenerateResponse) error {
	if qg.cache == nil {
		return nil
	}
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return qg.cache.Set(ctx, cacheKey(prompt, format), data, qg.cacheTTL).Err()
}

func cacheKey(prompt string, format overpass.OutputFormat) string {
	return fmt.Sprintf("oql:%s:%s", format, prompt)
}

func errorLabel(code errors.ErrorCode) string {
	return strings.ToLower(string(code))
}

// AuthMiddleware is an interface for authentication middleware
type AuthMiddleware interface {
	Middleware() gin.HandlerFunc
}

// SetupRoutes configures HTTP routes with optional authentication
func (qg *QueryGenerator) SetupRoutes(authMiddleware AuthMiddleware) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Public health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if qg.healthChecker != nil {
			response := qg.healthChecker.GetHealthResponse(c.Request.Context())
			statusCode := http.StatusOK
			if response.Status == observability.HealthStatusUnhealthy {
				statusCode = http.StatusServiceUnavailable
			}
			c.JSON(statusCode, response)
		} else {
			c.JSON(http.StatusOK, gin.H{
				"status":  "healthy",
				"version": "1.0.0",
				"service": "query-generator",
			})
		}
	})

	// Protected API routes (require authentication)
	api := r.Group("/api/v1")
	if authMiddleware != nil {
		api.Use(authMiddleware.Middleware())
	}
	{
		// Main generation endpoint
		api.POST("/generate", func(c *gin.Context) {
			var req GenerateRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				enhancedErr := errors.NewInvalidInputError("request body", err.Error())
				c.JSON(http.StatusBadRequest, formatErrorResponse(enhancedErr))
				return
			}

			response, err := qg.Generate(c.Request.Context(), &req)
			if err != nil {
				c.JSON(getErrorStatusCode(err), formatErrorResponse(err))
				return
			}

			c.JSON(http.StatusOK, response)
		})

		// Dictionary introspection
		api.GET("/dictionary", qg.handleGetDictionary)

		// Prompt history endpoint
		api.GET("/history", qg.handleGetHistory)

		// Prompt suggestions
		api.GET("/suggestions", qg.handleGetSuggestions)
	}

	return r
}

// handleGetDictionary exposes the phrase dictionary for client-side help
func (qg *QueryGenerator) handleGetDictionary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"features":  qg.dict.Features(),
		"modifiers": qg.dict.Modifiers(),
	})
}

func (qg *QueryGenerator) handleGetHistory(c *gin.Context) {
	if qg.historyStore == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []history.Entry{}, "count": 0})
		return
	}

	entries, err := qg.historyStore.Recent(c.Request.Context(), 20)
	if err != nil {
		enhancedErr := errors.NewDatabaseQueryError(err, "fetching prompt history")
		c.JSON(http.StatusInternalServerError, formatErrorResponse(enhancedErr))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleGetSuggestions proposes prompts from the dictionary and, when a
// history store is configured, from similar past prompts
func (qg *QueryGenerator) handleGetSuggestions(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	var suggestions []string
	normalized := dictionary.Normalize(query)
	for _, entry := range qg.dict.Features() {
		if normalized == "" || strings.Contains(entry.Phrase, normalized) {
			suggestions = append(suggestions, "Find all "+entry.Phrase+"s in ")
		}
		if len(suggestions) >= 10 {
			break
		}
	}

	if query != "" && qg.historyStore != nil {
		similar, err := qg.historyStore.FindSimilar(c.Request.Context(), query, 5)
		if err != nil {
			qg.logger.Warn(c.Request.Context(), "Failed to find similar prompts", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			for _, entry := range similar {
				suggestions = append(suggestions, entry.Prompt)
			}
		}
	}

	if suggestions == nil {
		suggestions = []string{}
	}
	c.JSON(http.StatusOK, suggestions)
}

// formatErrorResponse formats an error into a user-friendly response
func formatErrorResponse(err error) gin.H {
	if enhancedErr, ok := err.(*errors.EnhancedError); ok {
		response := gin.H{
			"error": gin.H{
				"code":    enhancedErr.Code,
				"message": enhancedErr.Message,
			},
		}

		if enhancedErr.Details != "" {
			response["error"].(gin.H)["details"] = enhancedErr.Details
		}

		if enhancedErr.Suggestion != "" {
			response["error"].(gin.H)["suggestion"] = enhancedErr.Suggestion
		}

		if len(enhancedErr.Metadata) > 0 {
			response["error"].(gin.H)["metadata"] = enhancedErr.Metadata
		}

		return response
	}

	return gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	}
}

// getErrorStatusCode returns the appropriate HTTP status code for an error
func getErrorStatusCode(err error) int {
	if enhancedErr, ok := err.(*errors.EnhancedError); ok {
		switch enhancedErr.Code {
		case errors.ErrCodePromptTooShort, errors.ErrCodeNoFeatureFound,
			errors.ErrCodeMissingGeoFilter, errors.ErrCodeConflictingGeoFilter,
			errors.ErrCodeInvalidBoundingBox, errors.ErrCodeInvalidOutputFormat,
			errors.ErrCodeInvalidInput, errors.ErrCodeMissingRequired:
			return http.StatusBadRequest
		case errors.ErrCodeUnknownFeature:
			return http.StatusUnprocessableEntity
		case errors.ErrCodeInvalidCredentials, errors.ErrCodeNotAuthenticated:
			return http.StatusUnauthorized
		case errors.ErrCodeInsufficientPerms:
			return http.StatusForbidden
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
