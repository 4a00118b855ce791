package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/osmquery/overpass-gen/internal/errors"

	"github.com/osmquery/overpass-gen/internal/dictionary"
	"github.com/osmquery/overpass-gen/internal/overpass"
)

// DefaultLookupTimeout bounds a single external tag lookup. On expiry the
// resolver degrades to the static dictionary instead of failing.
const DefaultLookupTimeout = 2 * time.Second

// TagLookup is the optional external tag-validity collaborator. It is
// best-effort: implementations may be slow or unavailable and the resolver
// treats every error as a soft degradation.
type TagLookup interface {
	LookupTag(ctx context.Context, key, value string) (overpass.TagLookupResult, error)
}

// LookupOutcome represents the result of one best-effort tag lookup.
// Degraded is set when the lookup was unavailable or timed out; expected
// unavailability is a value, not an error.
type LookupOutcome struct {
	OK       bool
	Result   overpass.TagLookupResult
	Degraded bool
}

// Resolution is the output of tag resolution: the ordered, deduplicated
// candidate tags plus any soft diagnostics gathered while grounding them.
type Resolution struct {
	Tags        []overpass.Tag
	Diagnostics []overpass.ValidationDiagnostic
}

// TagResolver maps a parsed prompt's feature and modifier phrases onto
// concrete tag constraints, optionally grounding each candidate against an
// external tag-validity lookup
type TagResolver struct {
	dict    *dictionary.Dictionary
	lookup  TagLookup // nil when no lookup collaborator is configured
	timeout time.Duration
}

// NewTagResolver creates a new tag resolver. lookup may be nil; timeout <= 0
// falls back to DefaultLookupTimeout.
func NewTagResolver(dict *dictionary.Dictionary, lookup TagLookup, timeout time.Duration) *TagResolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &TagResolver{dict: dict, lookup: lookup, timeout: timeout}
}

// Resolve maps the parsed feature and modifiers onto tags. A feature phrase
// unknown to the dictionary is grounded through the lookup as an amenity
// guess. UnknownFeature means the lookup answered and rejected the guess;
// when no lookup is configured or it was unavailable, the guess stays
// unconfirmed and resolution fails with NoFeatureFound instead.
func (tr *TagResolver) Resolve(ctx context.Context, parsed *ParsedPrompt) (*Resolution, error) {
	res := &Resolution{}
	var tags []overpass.Tag
	var guessed *overpass.Tag

	if entry, _, ok := tr.dict.FindFeature(dictionary.Normalize(parsed.Feature)); ok {
		tags = append(tags, entry.Tags...)
	} else {
		guess := overpass.Tag{Key: "amenity", Value: tagValue(parsed.Feature)}
		outcome := tr.ground(ctx, guess)
		if !outcome.OK {
			return nil, apperrors.NewNoFeatureFoundError(parsed.Raw)
		}
		if !outcome.Result.Valid {
			return nil, apperrors.NewUnknownFeatureError(parsed.Feature)
		}
		tags = append(tags, guess)
		guessed = &guess
		if outcome.Result.Deprecated {
			res.Diagnostics = append(res.Diagnostics, deprecatedDiagnostic(guess, outcome.Result.Alternatives))
		}
	}

	for _, phrase := range parsed.Modifiers {
		if modTags, ok := tr.dict.ModifierTags(phrase); ok {
			tags = append(tags, modTags...)
		}
	}

	tags = dedupeTags(tags)

	// Grounding pass over the dictionary-sourced tags. The guess was already
	// grounded above, and unavailability is reported once, not per tag.
	degraded := false
	for _, tag := range tags {
		if guessed != nil && tag == *guessed {
			continue
		}
		outcome := tr.ground(ctx, tag)
		switch {
		case outcome.Degraded:
			degraded = true
		case outcome.OK && outcome.Result.Deprecated:
			res.Diagnostics = append(res.Diagnostics, deprecatedDiagnostic(tag, outcome.Result.Alternatives))
		}
	}
	if degraded {
		res.Diagnostics = append(res.Diagnostics, overpass.SoftDiagnostic(
			overpass.DiagnosticLookupUnavailable,
			"tag lookup unavailable, tags were not grounded against live usage data",
			"",
		))
	}

	res.Tags = tags
	return res, nil
}

// ground performs one bounded best-effort lookup. A nil lookup is silent
// absence; errors and timeouts mark the outcome degraded.
func (tr *TagResolver) ground(ctx context.Context, tag overpass.Tag) LookupOutcome {
	if tr.lookup == nil {
		return LookupOutcome{}
	}
	lctx, cancel := context.WithTimeout(ctx, tr.timeout)
	defer cancel()

	result, err := tr.lookup.LookupTag(lctx, tag.Key, tag.Value)
	if err != nil {
		return LookupOutcome{Degraded: true}
	}
	return LookupOutcome{OK: true, Result: result}
}

func deprecatedDiagnostic(tag overpass.Tag, alternatives []overpass.Tag) overpass.ValidationDiagnostic {
	msg := fmt.Sprintf("tag %s is flagged deprecated", tag)
	if len(alternatives) > 0 {
		alts := make([]string, len(alternatives))
		for i, alt := range alternatives {
			alts[i] = alt.String()
		}
		msg += ", consider " + strings.Join(alts, " or ")
	}
	return overpass.SoftDiagnostic(overpass.DiagnosticDeprecatedTag, msg, tag.String())
}

func dedupeTags(tags []overpass.Tag) []overpass.Tag {
	seen := make(map[overpass.Tag]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// tagValue turns a free-form feature phrase into an OSM-style value,
// lowercased with underscores and a plural "s" trimmed.
func tagValue(phrase string) string {
	value := strings.ReplaceAll(dictionary.Normalize(phrase), " ", "_")
	if strings.HasSuffix(value, "s") && !strings.HasSuffix(value, "ss") {
		value = strings.TrimSuffix(value, "s")
	}
	return value
}
