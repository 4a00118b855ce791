package processor

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/osmquery/overpass-gen/internal/errors"

	"github.com/osmquery/overpass-gen/internal/overpass"
)

// GeographicFilterResolver maps the location parts of a parsed prompt onto a
// concrete geographic filter
type GeographicFilterResolver struct {
	titler cases.Caser
}

// NewGeographicFilterResolver creates a new geographic filter resolver
func NewGeographicFilterResolver() *GeographicFilterResolver {
	return &GeographicFilterResolver{
		titler: cases.Title(language.Und),
	}
}

// Resolve turns the parsed location or bbox literal into a geographic filter.
// Exactly one of the two must be present in the parsed prompt.
func (gr *GeographicFilterResolver) Resolve(parsed *ParsedPrompt) (overpass.GeographicFilter, error) {
	hasLocation := parsed.Location != ""
	hasBBox := parsed.BBoxLiteral != ""

	switch {
	case hasLocation && hasBBox:
		return overpass.GeographicFilter{}, apperrors.NewConflictingGeoFilterError(parsed.Location, parsed.BBoxLiteral)
	case hasBBox:
		box, err := parseBoundingBox(parsed.BBoxLiteral)
		if err != nil {
			return overpass.GeographicFilter{}, apperrors.NewInvalidBoundingBoxError(parsed.BBoxLiteral, err)
		}
		return overpass.NewBoundingBoxFilter(box), nil
	case hasLocation:
		// Prompt normalization lowercases everything; OSM area names
		// are conventionally title cased.
		return overpass.NewNamedArea(gr.titler.String(parsed.Location)), nil
	default:
		return overpass.GeographicFilter{}, apperrors.NewMissingGeoFilterError()
	}
}

// parseBoundingBox parses a "south,west,north,east" literal and validates
// the resulting box.
func parseBoundingBox(literal string) (overpass.BoundingBox, error) {
	parts := strings.Split(literal, ",")
	if len(parts) != 4 {
		return overpass.BoundingBox{}, fmt.Errorf("expected 4 comma-separated coordinates, got %d", len(parts))
	}
	coords := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return overpass.BoundingBox{}, fmt.Errorf("coordinate %d is not a number: %q", i+1, strings.TrimSpace(part))
		}
		coords[i] = v
	}
	box := overpass.BoundingBox{
		South: coords[0],
		West:  coords[1],
		North: coords[2],
		East:  coords[3],
	}
	if err := box.Validate(); err != nil {
		return overpass.BoundingBox{}, err
	}
	return box, nil
}
