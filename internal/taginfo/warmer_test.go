package taginfo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osmquery/overpass-gen/internal/dictionary"
	"github.com/osmquery/overpass-gen/internal/overpass"
)

// countingLookup records every live lookup so tests can prove which calls the
// warmer answered from its cache
type countingLookup struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingLookup) LookupTag(ctx context.Context, key, value string) (overpass.TagLookupResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return overpass.TagLookupResult{}, c.err
	}
	return overpass.TagLookupResult{Valid: true}, nil
}

func (c *countingLookup) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// TestWarmerDeprecatedTable tests that curated deprecations are answered
// without touching the live API
func TestWarmerDeprecatedTable(t *testing.T) {
	lookup := &countingLookup{}
	w := NewWarmer(lookup, dictionary.Default(), WarmerConfig{})

	result, err := w.LookupTag(context.Background(), "amenity", "nursing_home")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.True(t, result.Deprecated)
	assert.Equal(t, []overpass.Tag{{Key: "social_facility", Value: "nursing_home"}}, result.Alternatives)
	assert.Equal(t, 0, lookup.callCount())
}

// TestWarmerCachesLookups tests that repeated lookups hit the cache
func TestWarmerCachesLookups(t *testing.T) {
	lookup := &countingLookup{}
	w := NewWarmer(lookup, dictionary.Default(), WarmerConfig{CacheTTL: time.Hour})

	for i := 0; i < 3; i++ {
		result, err := w.LookupTag(context.Background(), "amenity", "cafe")
		require.NoError(t, err)
		assert.True(t, result.Valid)
	}
	assert.Equal(t, 1, lookup.callCount())
	assert.Equal(t, 1, w.CacheSize())
}

// TestWarmerCacheExpiry tests that stale entries go back to the live API
func TestWarmerCacheExpiry(t *testing.T) {
	lookup := &countingLookup{}
	w := NewWarmer(lookup, dictionary.Default(), WarmerConfig{CacheTTL: 10 * time.Millisecond})

	_, err := w.LookupTag(context.Background(), "amenity", "cafe")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = w.LookupTag(context.Background(), "amenity", "cafe")
	require.NoError(t, err)
	assert.Equal(t, 2, lookup.callCount())
}

// TestWarmerLookupError tests that live failures are not cached
func TestWarmerLookupError(t *testing.T) {
	lookup := &countingLookup{err: errors.New("connection refused")}
	w := NewWarmer(lookup, dictionary.Default(), WarmerConfig{})

	_, err := w.LookupTag(context.Background(), "amenity", "cafe")
	require.Error(t, err)
	assert.Equal(t, 0, w.CacheSize())
}

// TestWarmSweep tests that one sweep grounds every dictionary tag
func TestWarmSweep(t *testing.T) {
	lookup := &countingLookup{}
	dict := dictionary.Default()
	w := NewWarmer(lookup, dict, WarmerConfig{})

	require.NoError(t, w.warm(context.Background()))

	curated := 0
	for _, tag := range dict.AllTags() {
		if _, ok := deprecatedTags[tag.Key+"="+tag.Value]; ok {
			curated++
		}
	}
	assert.Equal(t, len(dict.AllTags())-curated, w.CacheSize())
	assert.Equal(t, len(dict.AllTags())-curated, lookup.callCount())
}

// TestWarmSweepAllFailures tests that a fully failed sweep is reported
func TestWarmSweepAllFailures(t *testing.T) {
	lookup := &countingLookup{err: errors.New("connection refused")}
	w := NewWarmer(lookup, dictionary.Default(), WarmerConfig{})

	err := w.warm(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag lookups failed")
	assert.Equal(t, 0, w.CacheSize())
}

// TestWarmerStartStop tests the run lifecycle
func TestWarmerStartStop(t *testing.T) {
	lookup := &countingLookup{}
	w := NewWarmer(lookup, dictionary.Default(), WarmerConfig{
		Enabled:  true,
		Interval: time.Hour,
	})

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

// TestWarmerRestart tests that a stopped warmer can run again
func TestWarmerRestart(t *testing.T) {
	lookup := &countingLookup{}
	w := NewWarmer(lookup, dictionary.Default(), WarmerConfig{
		Enabled:  true,
		Interval: time.Hour,
	})

	require.NoError(t, w.Start(context.Background()))
	w.Stop()

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.running)
	w.Stop()
}

// TestWarmerDisabled tests that a disabled warmer never starts its loop
func TestWarmerDisabled(t *testing.T) {
	w := NewWarmer(&countingLookup{}, dictionary.Default(), WarmerConfig{Enabled: false})

	require.NoError(t, w.Start(context.Background()))
	assert.False(t, w.running)
}
