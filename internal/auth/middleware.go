// internal/auth/middleware.go
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware returns a Gin middleware that authenticates requests and applies
// per-client rate limits. Authentication is attempted as JWT bearer token,
// then API key, then session cookie.
func (am *AuthManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if shouldSkipAuth(path) {
			c.Next()
			return
		}

		if !am.limiter.Allow(clientID(c), am.config.RateLimit) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		user, err := am.authenticateRequest(c)
		if err != nil {
			if am.config.AllowAnonymous && isPublicEndpoint(path) {
				c.Next()
				return
			}

			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("username", user.Username)
		c.Set("roles", user.Roles)

		c.Next()
	}
}

// RequireRole returns a middleware that admits only users holding at least
// one of the given roles.
func (am *AuthManager) RequireRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetCurrentUser(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			c.Abort()
			return
		}

		if !user.HasAnyRole(requiredRoles...) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// HasAnyRole reports whether the user holds at least one of the given roles.
func (u *User) HasAnyRole(roles ...string) bool {
	for _, required := range roles {
		for _, role := range u.Roles {
			if role == required {
				return true
			}
		}
	}
	return false
}

func (am *AuthManager) authenticateRequest(c *gin.Context) (*User, error) {
	if user, err := am.authenticateJWT(c); err == nil {
		return user, nil
	}
	if user, err := am.authenticateAPIKey(c); err == nil {
		return user, nil
	}
	if user, err := am.authenticateSession(c); err == nil {
		return user, nil
	}
	return nil, http.ErrAbortHandler
}

func (am *AuthManager) authenticateJWT(c *gin.Context) (*User, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, http.ErrAbortHandler
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, http.ErrAbortHandler
	}

	claims, err := am.ValidateJWTToken(parts[1])
	if err != nil {
		return nil, err
	}

	return am.GetUser(claims.UserID)
}

func (am *AuthManager) authenticateAPIKey(c *gin.Context) (*User, error) {
	apiKey := c.GetHeader("X-API-Key")
	if apiKey == "" {
		apiKey = c.Query("api_key")
	}
	if apiKey == "" {
		return nil, http.ErrAbortHandler
	}

	user, _, err := am.ValidateAPIKey(apiKey)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (am *AuthManager) authenticateSession(c *gin.Context) (*User, error) {
	sessionID, err := c.Cookie("session_id")
	if err != nil {
		return nil, err
	}

	return am.ValidateSession(sessionID)
}

// shouldSkipAuth reports whether a path bypasses authentication entirely.
func shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/health",
		"/api/v1/health",
		"/api/v1/auth/login",
		"/api/v1/auth/status",
		"/favicon.ico",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}

	return false
}

// isPublicEndpoint reports whether an endpoint admits anonymous callers when
// AllowAnonymous is set. The generation pipeline itself stays open; key and
// user management do not.
func isPublicEndpoint(path string) bool {
	publicEndpoints := []string{
		"/api/v1/generate",
		"/api/v1/dictionary",
		"/api/v1/suggestions",
	}

	for _, publicPath := range publicEndpoints {
		if path == publicPath {
			return true
		}
	}

	return false
}

// clientID derives the rate limit key: authenticated user, then API key
// prefix, then client IP.
func clientID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return "user:" + id
		}
	}

	if apiKey := c.GetHeader("X-API-Key"); len(apiKey) >= 8 {
		return "key:" + apiKey[:8]
	}

	return "ip:" + c.ClientIP()
}

// GetCurrentUser returns the current authenticated user from context
func GetCurrentUser(c *gin.Context) (*User, bool) {
	value, exists := c.Get("user")
	if !exists {
		return nil, false
	}

	user, ok := value.(*User)
	return user, ok
}

// GetCurrentUserID returns the current user ID from context
func GetCurrentUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return "", false
	}

	userID, ok := value.(string)
	return userID, ok
}
