// Package session stores login sessions in Redis. Expiry is enforced twice:
// by the Redis TTL, and by an explicit expiry timestamp carried in the
// session data for clock-skewed reads.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	keyPrefix    = "oqg:session:"
	sessionIDLen = 32
)

// Session is the payload stored per login.
type Session struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager handles session storage and retrieval
type Manager struct {
	redis  *redis.Client
	expiry time.Duration
}

// NewManager creates a session manager writing to the given Redis client.
func NewManager(redisClient *redis.Client, expiry time.Duration) *Manager {
	return &Manager{
		redis:  redisClient,
		expiry: expiry,
	}
}

// Create stores a new session and returns its ID.
func (m *Manager) Create(ctx context.Context, userID, username, token string, roles []string) (string, error) {
	sessionID, err := newSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	data, err := json.Marshal(Session{
		UserID:    userID,
		Username:  username,
		Roles:     roles,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(m.expiry),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := m.redis.Set(ctx, keyPrefix+sessionID, data, m.expiry).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return sessionID, nil
}

// Get retrieves a session by ID. An expired session is deleted on read.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := m.redis.Get(ctx, keyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if time.Now().After(sess.ExpiresAt) {
		m.Delete(ctx, sessionID)
		return nil, fmt.Errorf("session expired")
	}

	return &sess, nil
}

// Delete removes a session
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.redis.Del(ctx, keyPrefix+sessionID).Err()
}

// Refresh extends the session's Redis TTL.
func (m *Manager) Refresh(ctx context.Context, sessionID string) error {
	return m.redis.Expire(ctx, keyPrefix+sessionID, m.expiry).Err()
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
