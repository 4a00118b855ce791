package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/osmquery/overpass-gen/internal/errors"

	"github.com/osmquery/overpass-gen/internal/dictionary"
	"github.com/osmquery/overpass-gen/internal/overpass"
)

// fakeLookup is a scriptable TagLookup for resolver tests. Results are keyed
// by "key=value"; unknown tags report invalid, and err (when set) fails every
// lookup.
type fakeLookup struct {
	results map[string]overpass.TagLookupResult
	err     error
	calls   int
}

func (f *fakeLookup) LookupTag(ctx context.Context, key, value string) (overpass.TagLookupResult, error) {
	f.calls++
	if f.err != nil {
		return overpass.TagLookupResult{}, f.err
	}
	if r, ok := f.results[key+"="+value]; ok {
		return r, nil
	}
	return overpass.TagLookupResult{Valid: false}, nil
}

// TestResolveKnownFeature tests dictionary-backed resolution without a lookup
func TestResolveKnownFeature(t *testing.T) {
	tr := NewTagResolver(dictionary.Default(), nil, time.Second)

	res, err := tr.Resolve(context.Background(), &ParsedPrompt{Feature: "cafes"})
	require.NoError(t, err)
	assert.Equal(t, []overpass.Tag{{Key: "amenity", Value: "cafe"}}, res.Tags)
	assert.Empty(t, res.Diagnostics)
}

// TestResolveModifierTags tests that modifier tags are appended after the
// feature tags and deduplicated
func TestResolveModifierTags(t *testing.T) {
	tr := NewTagResolver(dictionary.Default(), nil, time.Second)

	res, err := tr.Resolve(context.Background(), &ParsedPrompt{
		Feature:   "cafes",
		Modifiers: []string{"with outdoor seating", "with wifi", "with free wifi"},
	})
	require.NoError(t, err)
	assert.Equal(t, []overpass.Tag{
		{Key: "amenity", Value: "cafe"},
		{Key: "outdoor_seating", Value: "yes"},
		{Key: "internet_access", Value: "wlan"},
		{Key: "internet_access:fee", Value: "no"},
	}, res.Tags)
}

// TestResolveUnknownFeatureGrounded tests the amenity-guess path for features
// the dictionary has never seen
func TestResolveUnknownFeatureGrounded(t *testing.T) {
	lookup := &fakeLookup{results: map[string]overpass.TagLookupResult{
		"amenity=skate_ramp": {Valid: true},
	}}
	tr := NewTagResolver(dictionary.Default(), lookup, time.Second)

	res, err := tr.Resolve(context.Background(), &ParsedPrompt{Feature: "skate ramps"})
	require.NoError(t, err)
	assert.Equal(t, []overpass.Tag{{Key: "amenity", Value: "skate_ramp"}}, res.Tags)
	assert.Empty(t, res.Diagnostics)
}

// TestResolveUnknownFeatureRejected tests that a guess the lookup answers
// and rejects fails with UnknownFeature
func TestResolveUnknownFeatureRejected(t *testing.T) {
	tr := NewTagResolver(dictionary.Default(), &fakeLookup{}, time.Second)

	_, err := tr.Resolve(context.Background(), &ParsedPrompt{Raw: "frobnicators", Feature: "frobnicators"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnknownFeature, apperrors.CodeOf(err))
}

// TestResolveUnconfirmedGuess tests that a guess nothing could confirm fails
// with NoFeatureFound rather than UnknownFeature: without an answer from the
// lookup there is no evidence the phrase names a real feature at all
func TestResolveUnconfirmedGuess(t *testing.T) {
	tests := []struct {
		name   string
		lookup TagLookup
	}{
		{"no lookup configured", nil},
		{"lookup unavailable", &fakeLookup{err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTagResolver(dictionary.Default(), tt.lookup, time.Second)
			_, err := tr.Resolve(context.Background(), &ParsedPrompt{Raw: "abcde", Feature: "abcde"})
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeNoFeatureFound, apperrors.CodeOf(err))
		})
	}
}

// TestResolveDegradedLookup tests that an unreachable lookup yields a single
// soft diagnostic instead of a failure
func TestResolveDegradedLookup(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("connection refused")}
	tr := NewTagResolver(dictionary.Default(), lookup, time.Second)

	res, err := tr.Resolve(context.Background(), &ParsedPrompt{
		Feature:   "cafes",
		Modifiers: []string{"with outdoor seating"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Tags, 2)

	require.Len(t, res.Diagnostics, 1)
	diag := res.Diagnostics[0]
	assert.Equal(t, overpass.SeveritySoft, diag.Severity)
	assert.Equal(t, overpass.DiagnosticLookupUnavailable, diag.Kind)
}

// TestResolveDeprecatedTag tests that a deprecated tag yields a soft
// diagnostic naming the alternatives
func TestResolveDeprecatedTag(t *testing.T) {
	lookup := &fakeLookup{results: map[string]overpass.TagLookupResult{
		"amenity=cafe": {
			Valid:        true,
			Deprecated:   true,
			Alternatives: []overpass.Tag{{Key: "amenity", Value: "restaurant"}},
		},
	}}
	tr := NewTagResolver(dictionary.Default(), lookup, time.Second)

	res, err := tr.Resolve(context.Background(), &ParsedPrompt{Feature: "cafes"})
	require.NoError(t, err)

	require.Len(t, res.Diagnostics, 1)
	diag := res.Diagnostics[0]
	assert.Equal(t, overpass.DiagnosticDeprecatedTag, diag.Kind)
	assert.Contains(t, diag.Message, "amenity=restaurant")
	assert.Equal(t, "amenity=cafe", diag.Fragment)
}

// TestResolveDeprecatedGuessReportedOnce tests that a guessed feature the
// lookup flags deprecated carries exactly one diagnostic
func TestResolveDeprecatedGuessReportedOnce(t *testing.T) {
	lookup := &fakeLookup{results: map[string]overpass.TagLookupResult{
		"amenity=zorbing_arena": {
			Valid:        true,
			Deprecated:   true,
			Alternatives: []overpass.Tag{{Key: "leisure", Value: "zorbing"}},
		},
	}}
	tr := NewTagResolver(dictionary.Default(), lookup, time.Second)

	res, err := tr.Resolve(context.Background(), &ParsedPrompt{Raw: "zorbing arenas", Feature: "zorbing arenas"})
	require.NoError(t, err)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, overpass.DiagnosticDeprecatedTag, res.Diagnostics[0].Kind)
	assert.Equal(t, "amenity=zorbing_arena", res.Diagnostics[0].Fragment)
	assert.Equal(t, 1, lookup.calls)
}

// TestResolveLookupTimeout tests that a slow lookup degrades instead of
// blocking the pipeline
func TestResolveLookupTimeout(t *testing.T) {
	slow := slowLookup{delay: 200 * time.Millisecond}
	tr := NewTagResolver(dictionary.Default(), slow, 10*time.Millisecond)

	res, err := tr.Resolve(context.Background(), &ParsedPrompt{Feature: "cafes"})
	require.NoError(t, err)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, overpass.DiagnosticLookupUnavailable, res.Diagnostics[0].Kind)
}

type slowLookup struct {
	delay time.Duration
}

func (s slowLookup) LookupTag(ctx context.Context, key, value string) (overpass.TagLookupResult, error) {
	select {
	case <-time.After(s.delay):
		return overpass.TagLookupResult{Valid: true}, nil
	case <-ctx.Done():
		return overpass.TagLookupResult{}, ctx.Err()
	}
}
