package processor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	apperrors "github.com/osmquery/overpass-gen/internal/errors"

	"github.com/osmquery/overpass-gen/internal/dictionary"
)

// MinPromptLength is the minimum number of characters a prompt must have
// after trimming surrounding whitespace.
const MinPromptLength = 5

// ParsedPrompt holds the pieces extracted from a natural language prompt
type ParsedPrompt struct {
	Raw         string   `json:"raw"`
	Normalized  string   `json:"normalized"`
	Feature     string   `json:"feature"`      // matched feature span, e.g. "cafes"
	Location    string   `json:"location"`     // extracted place name, original casing
	BBoxLiteral string   `json:"bbox_literal"` // raw "s,w,n,e" numbers, if any
	Modifiers   []string `json:"modifiers"`    // matched modifier phrases
}

// PromptExtractor parses natural language prompts into their feature,
// location and modifier parts
type PromptExtractor struct {
	dict     *dictionary.Dictionary
	patterns map[string]*regexp.Regexp
}

// NewPromptExtractor creates a new prompt extractor backed by the given dictionary
func NewPromptExtractor(dict *dictionary.Dictionary) *PromptExtractor {
	coord := `-?\d+(?:\.\d+)?`
	patterns := map[string]*regexp.Regexp{
		"bbox":     regexp.MustCompile(`(?i)\bbbox\s+(` + coord + `\s*,\s*` + coord + `\s*,\s*` + coord + `\s*,\s*` + coord + `)`),
		"location": regexp.MustCompile(`(?i)\b(?:in|near|around|within)\s+(.+)$`),
	}
	return &PromptExtractor{dict: dict, patterns: patterns}
}

// Extract parses the prompt into its constituent parts. It fails when the
// prompt is shorter than MinPromptLength or names no known feature.
func (pe *PromptExtractor) Extract(prompt string) (*ParsedPrompt, error) {
	trimmed := strings.TrimSpace(prompt)
	if utf8.RuneCountInString(trimmed) < MinPromptLength {
		return nil, apperrors.NewPromptTooShortError(utf8.RuneCountInString(trimmed), MinPromptLength)
	}

	normalized := dictionary.Normalize(trimmed)
	parsed := &ParsedPrompt{
		Raw:        prompt,
		Normalized: normalized,
	}

	// The bbox literal is matched against the original text so that its
	// span can be cut out of the location capture below.
	var bboxSpan string
	if match := pe.patterns["bbox"].FindStringSubmatch(trimmed); len(match) > 1 {
		parsed.BBoxLiteral = stripSpaces(match[1])
		bboxSpan = match[0]
	}

	if _, span, ok := pe.dict.FindFeature(normalized); ok {
		parsed.Feature = span
	} else {
		parsed.Feature = pe.guessFeature(normalized)
	}
	if parsed.Feature == "" {
		return nil, apperrors.NewNoFeatureFoundError(trimmed)
	}

	for _, mod := range pe.dict.MatchModifiers(normalized) {
		parsed.Modifiers = append(parsed.Modifiers, mod.Phrase)
	}

	// Location is captured from the original text so place names keep
	// their casing. A capture that shrinks to nothing once the bbox
	// literal and modifier phrases are cut out names no place at all.
	if match := pe.patterns["location"].FindStringSubmatch(trimmed); len(match) > 1 {
		parsed.Location = cleanLocation(match[1], bboxSpan, parsed.Modifiers)
	}

	return parsed, nil
}

// guessFeature falls back to the noun phrase between the leading verb and
// the location or bbox part when the dictionary matched nothing. The tag
// resolver later grounds the guess through the external tag lookup.
func (pe *PromptExtractor) guessFeature(normalized string) string {
	text := normalized
	if match := pe.patterns["bbox"].FindStringIndex(text); match != nil {
		text = text[:match[0]] + text[match[1]:]
	}
	if match := pe.patterns["location"].FindStringIndex(text); match != nil {
		text = text[:match[0]]
	}
	for _, lead := range []string{"find all", "find", "show me", "show", "list all", "list", "get", "where are", "all"} {
		if strings.HasPrefix(text, lead+" ") {
			text = strings.TrimPrefix(text, lead+" ")
			break
		}
	}
	return strings.Trim(text, " ,.?!")
}

// cleanLocation strips the bbox literal and any modifier phrases out of the
// raw location capture and trims what remains.
func cleanLocation(capture, bboxSpan string, modifiers []string) string {
	loc := capture
	if bboxSpan != "" {
		loc = strings.Replace(loc, bboxSpan, "", 1)
	}
	for _, mod := range modifiers {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(mod))
		loc = re.ReplaceAllString(loc, "")
	}
	loc = strings.Trim(loc, " ,.?!")
	return squeezeSpaces(loc)
}

var spaceRun = regexp.MustCompile(`\s+`)

func squeezeSpaces(s string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}
