package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osmquery/overpass-gen/internal/overpass"
)

// TestNormalize tests lowercasing and diacritic stripping
func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Café", "cafe"},
		{"  Find All Cafes  ", "find all cafes"},
		{"Zürich", "zurich"},
		{"ŚWIĘTY", "swiety"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

// TestNewValidation tests construction-time entry validation
func TestNewValidation(t *testing.T) {
	valid := Entry{Phrase: "cafe", Tags: []overpass.Tag{{Key: "amenity", Value: "cafe"}}}

	t.Run("accepts valid entries", func(t *testing.T) {
		d, err := New([]Entry{valid}, nil)
		require.NoError(t, err)
		require.NotNil(t, d)
	})

	t.Run("rejects empty phrase", func(t *testing.T) {
		_, err := New([]Entry{{Phrase: "  ", Tags: valid.Tags}}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects entry without tags", func(t *testing.T) {
		_, err := New([]Entry{{Phrase: "cafe"}}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects duplicate phrases", func(t *testing.T) {
		_, err := New([]Entry{valid, {Phrase: "Café", Tags: valid.Tags}}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "registered twice")
	})

	t.Run("rejects invalid tag key", func(t *testing.T) {
		_, err := New([]Entry{{Phrase: "cafe", Tags: []overpass.Tag{{Key: "bad key", Value: "x"}}}}, nil)
		assert.Error(t, err)
	})
}

// TestFindFeatureMultibyteBoundary tests that boundary checks decode whole
// runes: a phrase embedded in a word that ends in a multibyte letter such as
// the sharp s is not a word-boundary match
func TestFindFeatureMultibyteBoundary(t *testing.T) {
	d, err := New([]Entry{
		{Phrase: "bier", Tags: []overpass.Tag{{Key: "shop", Value: "beverages"}}},
	}, nil)
	require.NoError(t, err)

	_, _, found := d.FindFeature("find weißbier here")
	assert.False(t, found)

	_, span, found := d.FindFeature("find weiß bier here")
	require.True(t, found)
	assert.Equal(t, "bier", span)
}

// TestFindFeature tests span matching behavior
func TestFindFeature(t *testing.T) {
	d := Default()

	tests := []struct {
		name         string
		text         string
		expectPhrase string
		expectSpan   string
		expectFound  bool
	}{
		{
			name:         "singular match",
			text:         "find all cafe in berlin",
			expectPhrase: "cafe",
			expectSpan:   "cafe",
			expectFound:  true,
		},
		{
			name:         "plural prompt matches singular phrase with plural span",
			text:         "find all cafes in berlin",
			expectPhrase: "cafe",
			expectSpan:   "cafes",
			expectFound:  true,
		},
		{
			name:         "longest phrase wins",
			text:         "show bicycle parking near the station",
			expectPhrase: "bicycle parking",
			expectSpan:   "bicycle parking",
			expectFound:  true,
		},
		{
			name:        "word boundary prevents substring match",
			text:        "find all barbershops in town",
			expectFound: false,
		},
		{
			name:        "no feature present",
			text:        "hello there general",
			expectFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, span, found := d.FindFeature(tt.text)
			require.Equal(t, tt.expectFound, found)
			if found {
				assert.Equal(t, tt.expectPhrase, entry.Phrase)
				assert.Equal(t, tt.expectSpan, span)
			}
		})
	}
}

// TestMatchModifiers tests modifier phrase detection
func TestMatchModifiers(t *testing.T) {
	d := Default()

	t.Run("single modifier", func(t *testing.T) {
		matched := d.MatchModifiers("find all cafes with outdoor seating in berlin")
		require.Len(t, matched, 1)
		assert.Equal(t, "with outdoor seating", matched[0].Phrase)
	})

	t.Run("multiple modifiers in registration order", func(t *testing.T) {
		matched := d.MatchModifiers("vegan restaurants with outdoor seating in bonn")
		require.Len(t, matched, 2)
		assert.Equal(t, "with outdoor seating", matched[0].Phrase)
		assert.Equal(t, "vegan", matched[1].Phrase)
	})

	t.Run("no modifiers", func(t *testing.T) {
		assert.Empty(t, d.MatchModifiers("find all cafes in berlin"))
	})
}

// TestFeatureTags tests exact phrase lookup
func TestFeatureTags(t *testing.T) {
	d := Default()

	tags, ok := d.FeatureTags("Café")
	require.True(t, ok)
	require.Len(t, tags, 1)
	assert.Equal(t, overpass.Tag{Key: "amenity", Value: "cafe"}, tags[0])

	_, ok = d.FeatureTags("spaceport")
	assert.False(t, ok)
}

// TestMultiTagPhrases tests that phrases carrying tag alternatives keep all of them
func TestMultiTagPhrases(t *testing.T) {
	d := Default()

	tags, ok := d.FeatureTags("coffee shop")
	require.True(t, ok)
	assert.Equal(t, []overpass.Tag{
		{Key: "amenity", Value: "cafe"},
		{Key: "shop", Value: "coffee"},
	}, tags)
}

// TestAllTags tests deduplicated tag enumeration
func TestAllTags(t *testing.T) {
	d := Default()
	tags := d.AllTags()

	require.NotEmpty(t, tags)

	seen := make(map[overpass.Tag]int)
	for _, tag := range tags {
		seen[tag]++
	}
	for tag, count := range seen {
		assert.Equal(t, 1, count, "tag %s appears more than once", tag)
	}

	// fuel appears under two phrases but must be listed once
	assert.Equal(t, 1, seen[overpass.Tag{Key: "amenity", Value: "fuel"}])
}

// TestImmutability tests that accessor results cannot mutate the dictionary
func TestImmutability(t *testing.T) {
	d := Default()

	features := d.Features()
	require.NotEmpty(t, features)
	features[0].Tags[0] = overpass.Tag{Key: "mutated", Value: "yes"}

	fresh := d.Features()
	assert.NotEqual(t, "mutated", fresh[0].Tags[0].Key)
}
