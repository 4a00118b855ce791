// Package errors provides enhanced error types with helpful context and suggestions
package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Prompt extraction errors
	ErrCodePromptTooShort ErrorCode = "PROMPT_TOO_SHORT"
	ErrCodeNoFeatureFound ErrorCode = "NO_FEATURE_FOUND"

	// Resolution errors
	ErrCodeUnknownFeature       ErrorCode = "UNKNOWN_FEATURE"
	ErrCodeMissingGeoFilter     ErrorCode = "MISSING_GEOGRAPHIC_FILTER"
	ErrCodeConflictingGeoFilter ErrorCode = "CONFLICTING_GEOGRAPHIC_FILTER"
	ErrCodeInvalidBoundingBox   ErrorCode = "INVALID_BOUNDING_BOX"
	ErrCodeInvalidOutputFormat  ErrorCode = "INVALID_OUTPUT_FORMAT"

	// Validation errors
	ErrCodeStructural ErrorCode = "STRUCTURAL_ERROR"
	ErrCodeSemantic   ErrorCode = "SEMANTIC_ERROR"

	// Database errors
	ErrCodeDatabaseConnection ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseQuery      ErrorCode = "DATABASE_QUERY_FAILED"

	// Authentication errors
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeTokenCreation      ErrorCode = "TOKEN_CREATION_FAILED"
	ErrCodeSessionCreation    ErrorCode = "SESSION_CREATION_FAILED"
	ErrCodeNotAuthenticated   ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeInsufficientPerms  ErrorCode = "INSUFFICIENT_PERMISSIONS"

	// Input validation errors
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED_FIELD"

	// Cache errors
	ErrCodeCacheRead  ErrorCode = "CACHE_READ_FAILED"
	ErrCodeCacheWrite ErrorCode = "CACHE_WRITE_FAILED"
)

// EnhancedError represents an error with additional context and helpful information
type EnhancedError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Details != "" {
		sb.WriteString(fmt.Sprintf(": %s", e.Details))
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(" (cause: %v)", e.Cause))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error chain unwrapping
func (e *EnhancedError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly error message with suggestions
func (e *EnhancedError) UserMessage() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Details != "" {
		sb.WriteString(fmt.Sprintf("\n\nDetails: %s", e.Details))
	}
	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n\nSuggestion: %s", e.Suggestion))
	}
	return sb.String()
}

// New creates a new EnhancedError
func New(code ErrorCode, message string) *EnhancedError {
	return &EnhancedError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with enhanced context
func Wrap(err error, code ErrorCode, message string) *EnhancedError {
	return &EnhancedError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithDetails adds details to the error
func (e *EnhancedError) WithDetails(details string) *EnhancedError {
	e.Details = details
	return e
}

// WithSuggestion adds a suggestion to the error
func (e *EnhancedError) WithSuggestion(suggestion string) *EnhancedError {
	e.Suggestion = suggestion
	return e
}

// WithMetadata adds metadata to the error
func (e *EnhancedError) WithMetadata(key string, value interface{}) *EnhancedError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// CodeOf extracts the ErrorCode from an error, or empty when the error does not carry one
func CodeOf(err error) ErrorCode {
	if ee, ok := err.(*EnhancedError); ok {
		return ee.Code
	}
	return ""
}

// NewPromptTooShortError creates an error for a prompt below the minimum length
func NewPromptTooShortError(length, minimum int) *EnhancedError {
	return New(ErrCodePromptTooShort, "Prompt is too short").
		WithDetails(fmt.Sprintf("The prompt has %d characters after trimming; at least %d are required", length, minimum)).
		WithSuggestion("Describe what you are looking for and where, for example: 'Find all cafes in Berlin'").
		WithMetadata("length", length).
		WithMetadata("minimum", minimum)
}

// NewNoFeatureFoundError creates an error for a prompt with no recognizable feature
func NewNoFeatureFoundError(prompt string) *EnhancedError {
	return New(ErrCodeNoFeatureFound, "No recognizable feature in prompt").
		WithDetails(fmt.Sprintf("No known feature phrase was found in: %q", prompt)).
		WithSuggestion("Name a concrete map feature such as 'cafes', 'bus stops', or 'charging stations'")
}

// NewUnknownFeatureError creates an error for a feature phrase nothing could resolve
func NewUnknownFeatureError(phrase string) *EnhancedError {
	return New(ErrCodeUnknownFeature, "Unknown feature phrase").
		WithDetails(fmt.Sprintf("Neither the dictionary nor the tag lookup recognizes %q", phrase)).
		WithSuggestion("Use a more common name for the feature, or browse the dictionary endpoint for supported phrases").
		WithMetadata("phrase", phrase)
}

// NewMissingGeoFilterError creates an error for a prompt without any geographic scope
func NewMissingGeoFilterError() *EnhancedError {
	return New(ErrCodeMissingGeoFilter, "No geographic filter in prompt").
		WithDetails("The prompt names neither a place nor a bounding box").
		WithSuggestion("Add a location such as 'in Berlin', or a literal box such as 'bbox 48.85,2.34,48.86,2.35'")
}

// NewConflictingGeoFilterError creates an error for a prompt naming both a place and a bounding box
func NewConflictingGeoFilterError(location, bbox string) *EnhancedError {
	return New(ErrCodeConflictingGeoFilter, "Conflicting geographic filters in prompt").
		WithDetails(fmt.Sprintf("The prompt names both a place (%q) and a bounding box (%q); exactly one is allowed", location, bbox)).
		WithSuggestion("Remove either the place name or the bbox literal from the prompt").
		WithMetadata("location", location).
		WithMetadata("bbox", bbox)
}

// NewInvalidBoundingBoxError creates an error for a malformed or out-of-range bounding box
func NewInvalidBoundingBoxError(literal string, reason error) *EnhancedError {
	return Wrap(reason, ErrCodeInvalidBoundingBox, "Invalid bounding box").
		WithDetails(fmt.Sprintf("The bounding box %q is not usable: %v", literal, reason)).
		WithSuggestion("Provide four comma-separated numbers as south,west,north,east with south<=north and west<=east").
		WithMetadata("literal", literal)
}

// NewInvalidOutputFormatError creates an error for an unsupported output format
func NewInvalidOutputFormatError(format string) *EnhancedError {
	return New(ErrCodeInvalidOutputFormat, "Unsupported output format").
		WithDetails(fmt.Sprintf("Output format %q is not supported", format)).
		WithSuggestion("Use one of: json, xml, geojson").
		WithMetadata("format", format)
}

// NewStructuralError creates an error for a structural fault in the rendered query.
// This indicates a bug in the assembler, not bad user input.
func NewStructuralError(reason, fragment string) *EnhancedError {
	return New(ErrCodeStructural, "Rendered query failed structural validation").
		WithDetails(reason).
		WithSuggestion("This is an internal consistency fault. Report it together with the prompt that triggered it").
		WithMetadata("fragment", fragment)
}

// NewSemanticError creates an error for a constraint violation detected after assembly
func NewSemanticError(reason error) *EnhancedError {
	return Wrap(reason, ErrCodeSemantic, "Query constraint failed semantic validation").
		WithDetails(reason.Error()).
		WithSuggestion("This is an internal consistency fault. Report it together with the prompt that triggered it")
}

// NewInvalidInputError creates an error for invalid user input
func NewInvalidInputError(field, reason string) *EnhancedError {
	return New(ErrCodeInvalidInput, "Invalid input").
		WithDetails(fmt.Sprintf("Field %q is invalid: %s", field, reason)).
		WithSuggestion("Check the API documentation for the expected format and try again")
}

// NewDatabaseQueryError creates an error for a failed database operation
func NewDatabaseQueryError(err error, operation string) *EnhancedError {
	return Wrap(err, ErrCodeDatabaseQuery, "Database query failed").
		WithDetails(fmt.Sprintf("Failed to execute database operation: %s", operation)).
		WithSuggestion("This is an internal server error. If the problem persists, contact support").
		WithMetadata("retryable", true)
}

// NewInvalidCredentialsError creates an error for failed authentication
func NewInvalidCredentialsError() *EnhancedError {
	return New(ErrCodeInvalidCredentials, "Invalid username or password").
		WithDetails("Authentication failed with the provided credentials").
		WithSuggestion("Check your username and password and try again")
}

// NewTokenCreationError creates an error for token generation failures
func NewTokenCreationError(err error) *EnhancedError {
	return Wrap(err, ErrCodeTokenCreation, "Failed to create authentication token").
		WithDetails("The system was unable to generate an authentication token").
		WithSuggestion("Try logging in again. If the problem persists, contact support").
		WithMetadata("retryable", true)
}

// NewNotAuthenticatedError creates an error for unauthenticated requests
func NewNotAuthenticatedError() *EnhancedError {
	return New(ErrCodeNotAuthenticated, "Authentication required").
		WithDetails("This endpoint requires authentication").
		WithSuggestion("Log in via the auth endpoint, or supply a valid API key in the 'X-API-Key' header")
}
