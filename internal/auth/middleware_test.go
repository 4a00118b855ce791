// internal/auth/middleware_test.go
package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedRouter(t *testing.T, config AuthConfig) (*gin.Engine, *AuthManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	am := NewTestAuthManager(config)
	router := gin.New()
	router.Use(am.Middleware())
	router.POST("/api/v1/generate", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/api/v1/history", func(c *gin.Context) {
		userID, _ := GetCurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router, am
}

func do(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestMiddlewareRejectsUnauthenticated tests the closed-by-default posture
func TestMiddlewareRejectsUnauthenticated(t *testing.T) {
	router, _ := protectedRouter(t, testConfig())

	w := do(router, httptest.NewRequest("GET", "/api/v1/history", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestMiddlewareAnonymousAccess tests that AllowAnonymous opens only the
// public generation endpoints
func TestMiddlewareAnonymousAccess(t *testing.T) {
	config := testConfig()
	config.AllowAnonymous = true
	router, _ := protectedRouter(t, config)

	w := do(router, httptest.NewRequest("POST", "/api/v1/generate", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, httptest.NewRequest("GET", "/api/v1/history", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestMiddlewareJWTAuth tests bearer token authentication
func TestMiddlewareJWTAuth(t *testing.T) {
	router, am := protectedRouter(t, testConfig())
	user, err := am.CreateUser("alice", "alice@example.com", []string{"user"})
	require.NoError(t, err)
	token, err := am.CreateJWTToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := do(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID)

	req = httptest.NewRequest("GET", "/api/v1/history", nil)
	req.Header.Set("Authorization", "Token "+token)
	assert.Equal(t, http.StatusUnauthorized, do(router, req).Code)
}

// TestMiddlewareAPIKeyAuth tests header and query parameter API keys
func TestMiddlewareAPIKeyAuth(t *testing.T) {
	router, am := protectedRouter(t, testConfig())
	user, err := am.CreateUser("alice", "alice@example.com", []string{"user"})
	require.NoError(t, err)
	key, err := am.CreateAPIKey(user.ID, "ci", nil, 10, testConfig().JWTExpiry)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/history", nil)
	req.Header.Set("X-API-Key", key.Key)
	assert.Equal(t, http.StatusOK, do(router, req).Code)

	req = httptest.NewRequest("GET", "/api/v1/history?api_key="+key.Key, nil)
	assert.Equal(t, http.StatusOK, do(router, req).Code)

	req = httptest.NewRequest("GET", "/api/v1/history", nil)
	req.Header.Set("X-API-Key", "oqg_bogus")
	assert.Equal(t, http.StatusUnauthorized, do(router, req).Code)
}

// TestMiddlewareSessionAuth tests session cookie authentication
func TestMiddlewareSessionAuth(t *testing.T) {
	router, am := protectedRouter(t, testConfig())
	user, err := am.CreateUser("alice", "alice@example.com", []string{"user"})
	require.NoError(t, err)
	sessionID, err := am.CreateSession(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/history", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	w := do(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID)
}

// TestMiddlewareRateLimit tests that the per-client limit returns 429
func TestMiddlewareRateLimit(t *testing.T) {
	config := testConfig()
	config.RateLimit = 3
	config.AllowAnonymous = true
	router, _ := protectedRouter(t, config)

	for i := 0; i < 3; i++ {
		w := do(router, httptest.NewRequest("POST", "/api/v1/generate", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(router, httptest.NewRequest("POST", "/api/v1/generate", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// TestMiddlewareSkipsAuthPaths tests that health and login bypass the checks
func TestMiddlewareSkipsAuthPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewTestAuthManager(testConfig())
	router := gin.New()
	router.Use(am.Middleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(router, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestRequireRole tests role gating on top of authentication
func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewTestAuthManager(testConfig())
	router := gin.New()
	router.Use(am.Middleware())
	router.GET("/admin", am.RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	user, err := am.CreateUser("alice", "alice@example.com", []string{"user"})
	require.NoError(t, err)
	userToken, err := am.CreateJWTToken(user)
	require.NoError(t, err)

	admin, err := am.GetUserByUsername("admin")
	require.NoError(t, err)
	adminToken, err := am.CreateJWTToken(admin)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, do(router, req).Code)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, do(router, req).Code)
}

// TestHasAnyRole tests the role matching helper
func TestHasAnyRole(t *testing.T) {
	u := &User{Roles: []string{"user", "editor"}}

	assert.True(t, u.HasAnyRole("editor"))
	assert.True(t, u.HasAnyRole("admin", "user"))
	assert.False(t, u.HasAnyRole("admin"))
	assert.False(t, u.HasAnyRole())
}
