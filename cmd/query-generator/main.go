package main

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/osmquery/overpass-gen/internal/auth"
	"github.com/osmquery/overpass-gen/internal/config"
	"github.com/osmquery/overpass-gen/internal/dictionary"
	"github.com/osmquery/overpass-gen/internal/history"
	"github.com/osmquery/overpass-gen/internal/observability"
	"github.com/osmquery/overpass-gen/internal/processor"
	"github.com/osmquery/overpass-gen/internal/session"
	"github.com/osmquery/overpass-gen/internal/taginfo"
)

func main() {
	ctx := context.Background()

	// Load configuration from mounted secret files or the environment
	cfg := config.NewDefaultLoader().MustLoad(ctx)
	if err := cfg.ValidateWithContext(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	// Initialize Redis client
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Initialize query history store. History is a convenience feature, so a
	// missing database downgrades it rather than blocking startup.
	var historyStore processor.HistoryStore
	pgStore, err := history.NewPostgresStore(history.PostgresConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Printf("Warning: query history disabled, database unavailable: %v", err)
	} else {
		historyStore = pgStore
		defer pgStore.Close()
	}

	// Initialize taginfo client with circuit breaker and cache warming
	taginfoClient := taginfo.NewClient(cfg.Taginfo.BaseURL, cfg.Taginfo.Timeout)
	breakerClient := taginfo.NewCircuitBreakerClient(taginfoClient, "taginfo", taginfo.DefaultCircuitBreakerConfig)

	dict := dictionary.Default()

	warmer := taginfo.NewWarmer(breakerClient, dict, taginfo.WarmerConfig{
		Enabled:  cfg.Taginfo.WarmingEnabled,
		Interval: cfg.Taginfo.WarmInterval,
		CacheTTL: cfg.Taginfo.CacheTTL,
	})
	if err := warmer.Start(ctx); err != nil {
		log.Printf("Warning: failed to start taginfo warmer: %v", err)
	}
	defer warmer.Stop()

	// Initialize auth manager with a Redis-backed session store
	sessionManager := session.NewManager(rdb, cfg.Auth.SessionExpiry)
	authManager := auth.NewAuthManager(auth.AuthConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		JWTExpiry:      cfg.Auth.JWTExpiry,
		SessionExpiry:  cfg.Auth.SessionExpiry,
		RateLimit:      cfg.Auth.RateLimit,
		AllowAnonymous: cfg.Auth.AllowAnonymous,
	}, sessionManager)

	// Start auth cleanup routine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			authManager.CleanupExpired()
		}
	}()

	// Initialize observability
	logger := observability.NewLogger("main")
	healthChecker := observability.NewHealthChecker()

	if pgStore != nil {
		healthChecker.Register("database", observability.DatabaseHealthCheck(func(ctx context.Context) error {
			return pgStore.Ping(ctx)
		}))
	}

	healthChecker.Register("redis", observability.RedisHealthCheck(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}))

	healthChecker.Register("taginfo", observability.TaginfoHealthCheck(func(ctx context.Context) error {
		_, err := breakerClient.ShowTag(ctx, "amenity", "cafe")
		return err
	}))

	healthChecker.Register("memory", observability.MemoryHealthCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.Alloc, m.Sys
	}))

	// Create query generator
	qg := processor.NewQueryGenerator(dict, warmer, rdb, historyStore, processor.GeneratorConfig{
		LookupTimeout: cfg.Generator.LookupTimeout,
		CacheTTL:      cfg.Generator.CacheTTL,
	})
	qg.SetHealthChecker(healthChecker)

	// Setup Gin router with authentication
	router := qg.SetupRoutes(authManager)

	// Add observability middleware
	router.Use(observability.RecoveryMiddleware(logger))
	router.Use(observability.RequestLoggingMiddleware(logger))
	router.Use(observability.CORSMiddleware(logger))

	// Add metrics endpoint
	router.GET("/metrics", func(c *gin.Context) {
		metrics := observability.GetGlobalMetrics().GetAll()
		c.JSON(200, gin.H{
			"metrics":   metrics,
			"timestamp": time.Now(),
		})
	})

	// Add auth handlers for login/logout/user management
	authHandlers := auth.NewAuthHandlers(authManager)
	authHandlers.SetupRoutes(router.Group("/api/v1"))

	port := cfg.Server.Port
	logger.Info(ctx, "Query generator starting", map[string]interface{}{
		"port":    port,
		"version": "1.0.0",
	})
	if err := router.Run(":" + port); err != nil {
		logger.Error(ctx, "Failed to start server", err, nil)
		log.Fatal("Failed to start server:", err)
	}
}
