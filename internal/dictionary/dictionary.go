// Package dictionary holds the phrase-to-tag mappings used to ground natural
// language against the OSM tagging model. A Dictionary is built once at
// process start and never mutated afterwards, so it is safe for concurrent
// read-only use across any number of requests.
package dictionary

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/osmquery/overpass-gen/internal/overpass"
)

// Entry maps one phrase to its candidate tags. A phrase may carry multiple
// alternative tags; all alternatives are retained through resolution and
// rendered as separate OR-ed query clauses.
type Entry struct {
	Phrase string         `json:"phrase"`
	Tags   []overpass.Tag `json:"tags"`
}

// Dictionary is an immutable registry of feature and modifier phrases.
// Feature phrases describe what to search for; modifier phrases contribute
// additional tag filters on top of the feature.
type Dictionary struct {
	features  []Entry
	modifiers []Entry

	// featureOrder holds indices into features sorted longest phrase
	// first, ties broken by registration order, so matching can prefer
	// "bicycle parking" over "parking".
	featureOrder []int

	featureIndex  map[string]int
	modifierIndex map[string]int
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a phrase and strips diacritics so "Café" and "cafe"
// compare equal.
func Normalize(s string) string {
	stripped, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		stripped = s
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}

// New builds a dictionary from feature and modifier entries. Phrases are
// normalized on registration; duplicate phrases, empty phrases, and invalid
// tags are rejected.
func New(features, modifiers []Entry) (*Dictionary, error) {
	d := &Dictionary{
		featureIndex:  make(map[string]int, len(features)),
		modifierIndex: make(map[string]int, len(modifiers)),
	}

	for _, e := range features {
		normalized, err := validateEntry(e)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", e.Phrase, err)
		}
		if _, exists := d.featureIndex[normalized]; exists {
			return nil, fmt.Errorf("feature %q registered twice", e.Phrase)
		}
		d.featureIndex[normalized] = len(d.features)
		d.features = append(d.features, Entry{Phrase: normalized, Tags: append([]overpass.Tag(nil), e.Tags...)})
	}

	for _, e := range modifiers {
		normalized, err := validateEntry(e)
		if err != nil {
			return nil, fmt.Errorf("modifier %q: %w", e.Phrase, err)
		}
		if _, exists := d.modifierIndex[normalized]; exists {
			return nil, fmt.Errorf("modifier %q registered twice", e.Phrase)
		}
		d.modifierIndex[normalized] = len(d.modifiers)
		d.modifiers = append(d.modifiers, Entry{Phrase: normalized, Tags: append([]overpass.Tag(nil), e.Tags...)})
	}

	d.featureOrder = make([]int, len(d.features))
	for i := range d.featureOrder {
		d.featureOrder[i] = i
	}
	sort.SliceStable(d.featureOrder, func(a, b int) bool {
		return len(d.features[d.featureOrder[a]].Phrase) > len(d.features[d.featureOrder[b]].Phrase)
	})

	return d, nil
}

func validateEntry(e Entry) (string, error) {
	normalized := Normalize(e.Phrase)
	if normalized == "" {
		return "", fmt.Errorf("phrase must not be empty")
	}
	if len(e.Tags) == 0 {
		return "", fmt.Errorf("phrase has no tags")
	}
	for _, t := range e.Tags {
		if err := t.Validate(); err != nil {
			return "", err
		}
	}
	return normalized, nil
}

// FindFeature finds the feature phrase matching the normalized prompt text
// as a substring and returns the exact span of text that matched. The
// longest matching phrase wins; ties break in favor of the first-registered
// phrase.
func (d *Dictionary) FindFeature(normalizedText string) (Entry, string, bool) {
	for _, idx := range d.featureOrder {
		e := d.features[idx]
		if start, end, ok := phraseSpan(normalizedText, e.Phrase); ok {
			return e, normalizedText[start:end], true
		}
	}
	return Entry{}, "", false
}

// MatchModifiers returns every modifier phrase found in the normalized
// prompt text, in registration order.
func (d *Dictionary) MatchModifiers(normalizedText string) []Entry {
	var matched []Entry
	for _, e := range d.modifiers {
		if _, _, ok := phraseSpan(normalizedText, e.Phrase); ok {
			matched = append(matched, e)
		}
	}
	return matched
}

// phraseSpan locates phrase in text on word boundaries, so "bar" does not
// match inside "barbershop". A trailing "s" on the word is tolerated, which
// lets singular dictionary phrases cover plural prompts ("cafe" matches
// "cafes"); the returned span includes the plural "s".
func phraseSpan(text, phrase string) (int, int, bool) {
	for start := 0; start <= len(text)-len(phrase); {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return 0, 0, false
		}
		i += start

		boundaryBefore := i == 0 || !isWordRune(lastRune(text[:i]))
		end := i + len(phrase)
		boundaryAfter := end >= len(text) || !isWordRune(firstRune(text[end:]))
		if !boundaryAfter && text[end] == 's' {
			if end+1 >= len(text) || !isWordRune(firstRune(text[end+1:])) {
				boundaryAfter = true
				end++
			}
		}
		if boundaryBefore && boundaryAfter {
			return i, end, true
		}
		start = i + 1
	}
	return 0, 0, false
}

// firstRune and lastRune decode whole runes at span edges. Indexing the byte
// would misread multibyte neighbors such as the sharp s as non-word runes.
func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// FeatureTags returns the candidate tags registered for an exact feature
// phrase.
func (d *Dictionary) FeatureTags(phrase string) ([]overpass.Tag, bool) {
	idx, ok := d.featureIndex[Normalize(phrase)]
	if !ok {
		return nil, false
	}
	return append([]overpass.Tag(nil), d.features[idx].Tags...), true
}

// ModifierTags returns the tags registered for an exact modifier phrase.
func (d *Dictionary) ModifierTags(phrase string) ([]overpass.Tag, bool) {
	idx, ok := d.modifierIndex[Normalize(phrase)]
	if !ok {
		return nil, false
	}
	return append([]overpass.Tag(nil), d.modifiers[idx].Tags...), true
}

// Features returns a copy of the feature entries in registration order.
func (d *Dictionary) Features() []Entry {
	return copyEntries(d.features)
}

// Modifiers returns a copy of the modifier entries in registration order.
func (d *Dictionary) Modifiers() []Entry {
	return copyEntries(d.modifiers)
}

// AllTags returns every distinct tag registered in the dictionary, features
// first, in registration order.
func (d *Dictionary) AllTags() []overpass.Tag {
	var tags []overpass.Tag
	seen := make(map[overpass.Tag]struct{})
	for _, list := range [][]Entry{d.features, d.modifiers} {
		for _, e := range list {
			for _, t := range e.Tags {
				if _, ok := seen[t]; ok {
					continue
				}
				seen[t] = struct{}{}
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func copyEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Phrase: e.Phrase, Tags: append([]overpass.Tag(nil), e.Tags...)}
	}
	return out
}
