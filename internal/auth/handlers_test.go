// internal/auth/handlers_test.go
package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, config AuthConfig) (*gin.Engine, *AuthManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	am := NewTestAuthManager(config)
	router := gin.New()
	NewAuthHandlers(am).SetupRoutes(router.Group("/api/v1"))
	return router, am
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

// TestLogin tests the login flow end to end: token, session cookie, user echo
func TestLogin(t *testing.T) {
	router, am := newTestRouter(t, testConfig())
	_, err := am.CreateUserWithPassword("alice", "alice@example.com", "hunter2", []string{"user"})
	require.NoError(t, err)

	w := postJSON(router, "/api/v1/auth/login", LoginRequest{Username: "alice", Password: "hunter2"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)

	claims, err := am.ValidateJWTToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "session_id", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)

	_, err = am.ValidateSession(cookies[0].Value)
	assert.NoError(t, err)
}

// TestLoginRejectsBadCredentials tests wrong passwords and unknown users
func TestLoginRejectsBadCredentials(t *testing.T) {
	router, am := newTestRouter(t, testConfig())
	_, err := am.CreateUserWithPassword("alice", "alice@example.com", "hunter2", []string{"user"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  LoginRequest
		code int
	}{
		{"wrong password", LoginRequest{Username: "alice", Password: "nope"}, http.StatusUnauthorized},
		{"unknown user", LoginRequest{Username: "mallory", Password: "x"}, http.StatusUnauthorized},
		{"missing password", LoginRequest{Username: "alice"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/api/v1/auth/login", tt.req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

// TestLogout tests that logout revokes the session
func TestLogout(t *testing.T) {
	router, am := newTestRouter(t, testConfig())
	user, err := am.CreateUser("alice", "alice@example.com", []string{"user"})
	require.NoError(t, err)

	sessionID, err := am.CreateSession(user.ID)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	_, err = am.ValidateSession(sessionID)
	assert.Error(t, err)
}

// TestAuthStatus tests the unauthenticated status endpoint
func TestAuthStatus(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/auth/status", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, false, status["authenticated"])
	assert.Equal(t, true, status["authentication_enabled"])
}

// TestGetCurrentUserEndpoint tests /auth/me with a bearer token
func TestGetCurrentUserEndpoint(t *testing.T) {
	router, am := newTestRouter(t, testConfig())
	user, err := am.CreateUser("alice", "alice@example.com", []string{"user"})
	require.NoError(t, err)
	token, err := am.CreateJWTToken(user)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, user.ID, got.ID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestCreateAPIKeyEndpoint tests key creation over HTTP
func TestCreateAPIKeyEndpoint(t *testing.T) {
	router, am := newTestRouter(t, testConfig())
	user, err := am.CreateUser("alice", "alice@example.com", []string{"user"})
	require.NoError(t, err)
	token, err := am.CreateJWTToken(user)
	require.NoError(t, err)

	body, _ := json.Marshal(CreateAPIKeyRequest{Name: "ci", ExpiresIn: "30d"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/api-keys", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp CreateAPIKeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Key, "oqg_")
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), resp.ExpiresAt, time.Minute)

	gotUser, _, err := am.ValidateAPIKey(resp.Key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, gotUser.ID)
}

// TestAdminEndpointsRequireAdminRole tests admin route protection
func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	router, am := newTestRouter(t, testConfig())
	user, err := am.CreateUser("alice", "alice@example.com", []string{"user"})
	require.NoError(t, err)
	userToken, err := am.CreateJWTToken(user)
	require.NoError(t, err)

	admin, err := am.GetUserByUsername("admin")
	require.NoError(t, err)
	adminToken, err := am.CreateJWTToken(admin)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/v1/admin/rate-limit-stats", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "total_clients")
}

// TestCreateUserEndpoint tests admin user creation with a password
func TestCreateUserEndpoint(t *testing.T) {
	router, am := newTestRouter(t, testConfig())
	admin, err := am.GetUserByUsername("admin")
	require.NoError(t, err)
	adminToken, err := am.CreateJWTToken(admin)
	require.NoError(t, err)

	body, _ := json.Marshal(CreateUserRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "hunter2",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/admin/users", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	bob, err := am.GetUserByUsername("bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, bob.Roles)
	assert.True(t, am.ValidatePassword(bob, "hunter2"))

	// duplicate username conflicts
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/v1/admin/users", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

// TestParseExpiry tests the key expiry shorthand
func TestParseExpiry(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"", 30 * 24 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"1y", 365 * 24 * time.Hour, false},
		{"720h", 720 * time.Hour, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := parseExpiry(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}
