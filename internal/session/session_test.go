package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, expiry time.Duration) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewManager(rdb, expiry), mr
}

// TestSessionRoundTrip tests that a created session can be read back
func TestSessionRoundTrip(t *testing.T) {
	m, mr := newTestManager(t, time.Hour)
	ctx := context.Background()

	id, err := m.Create(ctx, "user-1", "alice", "tok", []string{"user"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("oqg:session:"+id))

	sess, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, []string{"user"}, sess.Roles)
}

// TestSessionIDsAreUnique tests that session IDs do not repeat
func TestSessionIDsAreUnique(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	first, err := m.Create(ctx, "user-1", "alice", "tok", nil)
	require.NoError(t, err)
	second, err := m.Create(ctx, "user-1", "alice", "tok", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

// TestSessionNotFound tests reads of unknown or deleted sessions
func TestSessionNotFound(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.ErrorContains(t, err, "not found")

	id, err := m.Create(ctx, "user-1", "alice", "tok", nil)
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, id))

	_, err = m.Get(ctx, id)
	assert.ErrorContains(t, err, "not found")
}

// TestSessionExpiry tests that the embedded expiry is enforced on read even
// before the Redis TTL fires
func TestSessionExpiry(t *testing.T) {
	m, mr := newTestManager(t, 10*time.Millisecond)
	ctx := context.Background()

	id, err := m.Create(ctx, "user-1", "alice", "tok", nil)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = m.Get(ctx, id)
	assert.ErrorContains(t, err, "expired")
	assert.False(t, mr.Exists("oqg:session:"+id))
}

// TestSessionRefresh tests that Refresh extends the Redis TTL
func TestSessionRefresh(t *testing.T) {
	m, mr := newTestManager(t, time.Hour)
	ctx := context.Background()

	id, err := m.Create(ctx, "user-1", "alice", "tok", nil)
	require.NoError(t, err)

	mr.FastForward(30 * time.Minute)
	require.NoError(t, m.Refresh(ctx, id))

	ttl := mr.TTL("oqg:session:" + id)
	assert.Equal(t, time.Hour, ttl)
}
