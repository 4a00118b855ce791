// Package overpass defines the query model shared by the generation pipeline:
// OSM tags, element types, geographic filters, and the assembled QueryConstraint.
package overpass

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxTagFieldLength is the maximum length of a tag key or value accepted by OSM.
const MaxTagFieldLength = 255

var tagKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9:_-]+$`)

// Tag is a single OSM key/value pair used as a query filter.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Validate checks the tag against OSM tag constraints.
func (t Tag) Validate() error {
	if t.Key == "" {
		return fmt.Errorf("tag key must not be empty")
	}
	if len(t.Key) > MaxTagFieldLength {
		return fmt.Errorf("tag key %q exceeds %d characters", truncate(t.Key, 32), MaxTagFieldLength)
	}
	if len(t.Value) > MaxTagFieldLength {
		return fmt.Errorf("tag value for key %q exceeds %d characters", t.Key, MaxTagFieldLength)
	}
	if !tagKeyPattern.MatchString(t.Key) {
		return fmt.Errorf("tag key %q contains invalid characters", t.Key)
	}
	return nil
}

// String renders the tag as key=value.
func (t Tag) String() string {
	return t.Key + "=" + t.Value
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ElementType identifies one of the three OSM element kinds.
type ElementType string

const (
	ElementNode     ElementType = "node"
	ElementWay      ElementType = "way"
	ElementRelation ElementType = "relation"
)

// AllElementTypes returns the element types in their canonical rendering order.
func AllElementTypes() []ElementType {
	return []ElementType{ElementNode, ElementWay, ElementRelation}
}

// ParseElementType parses a string into an ElementType.
func ParseElementType(s string) (ElementType, error) {
	switch ElementType(strings.ToLower(strings.TrimSpace(s))) {
	case ElementNode:
		return ElementNode, nil
	case ElementWay:
		return ElementWay, nil
	case ElementRelation:
		return ElementRelation, nil
	}
	return "", fmt.Errorf("element type must be one of node, way, relation; got %q", s)
}

// OutputFormat selects the [out:...] header directive of the rendered query.
type OutputFormat string

const (
	FormatJSON    OutputFormat = "json"
	FormatXML     OutputFormat = "xml"
	FormatGeoJSON OutputFormat = "geojson"
)

// ParseOutputFormat parses a string into an OutputFormat. An empty string
// defaults to json.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return FormatJSON, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXML:
		return FormatXML, nil
	case FormatGeoJSON:
		return FormatGeoJSON, nil
	}
	return "", fmt.Errorf("output format must be one of json, xml, geojson; got %q", s)
}

// Point is a single polygon vertex.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is a south/west/north/east rectangle in WGS84 coordinates.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Validate checks ordering and coordinate ranges, naming the offending value.
func (b BoundingBox) Validate() error {
	if b.South < -90 || b.South > 90 {
		return fmt.Errorf("south latitude %s out of range [-90, 90]", FormatCoord(b.South))
	}
	if b.North < -90 || b.North > 90 {
		return fmt.Errorf("north latitude %s out of range [-90, 90]", FormatCoord(b.North))
	}
	if b.West < -180 || b.West > 180 {
		return fmt.Errorf("west longitude %s out of range [-180, 180]", FormatCoord(b.West))
	}
	if b.East < -180 || b.East > 180 {
		return fmt.Errorf("east longitude %s out of range [-180, 180]", FormatCoord(b.East))
	}
	if b.South > b.North {
		return fmt.Errorf("south latitude %s exceeds north latitude %s", FormatCoord(b.South), FormatCoord(b.North))
	}
	if b.West > b.East {
		return fmt.Errorf("west longitude %s exceeds east longitude %s", FormatCoord(b.West), FormatCoord(b.East))
	}
	return nil
}

// FormatCoord renders a coordinate deterministically, with the shortest
// representation that round-trips through ParseFloat.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FilterKind discriminates the geographic filter variants.
type FilterKind string

const (
	FilterNamedArea   FilterKind = "named_area"
	FilterBoundingBox FilterKind = "bounding_box"
	FilterPolygon     FilterKind = "polygon"
)

// GeographicFilter restricts a query to exactly one geographic scope: a named
// area resolved server-side at execution time, a literal bounding box, or a
// polygon. Construct values through NewNamedArea, NewBoundingBoxFilter, or
// NewPolygonFilter so the variant invariant holds.
type GeographicFilter struct {
	Kind     FilterKind   `json:"kind"`
	AreaName string       `json:"area_name,omitempty"`
	BBox     *BoundingBox `json:"bounding_box,omitempty"`
	Polygon  []Point      `json:"polygon,omitempty"`
}

// NewNamedArea builds a named-area filter. The area's existence is checked by
// the query engine at execution time, not here.
func NewNamedArea(name string) GeographicFilter {
	return GeographicFilter{Kind: FilterNamedArea, AreaName: name}
}

// NewBoundingBoxFilter builds a bounding-box filter.
func NewBoundingBoxFilter(b BoundingBox) GeographicFilter {
	return GeographicFilter{Kind: FilterBoundingBox, BBox: &b}
}

// NewPolygonFilter builds a polygon filter.
func NewPolygonFilter(points []Point) GeographicFilter {
	return GeographicFilter{Kind: FilterPolygon, Polygon: points}
}

// Validate checks that exactly one variant is populated and that it is
// internally consistent.
func (g GeographicFilter) Validate() error {
	populated := 0
	if g.AreaName != "" {
		populated++
	}
	if g.BBox != nil {
		populated++
	}
	if len(g.Polygon) > 0 {
		populated++
	}
	if populated == 0 {
		return fmt.Errorf("geographic filter has no variant populated")
	}
	if populated > 1 {
		return fmt.Errorf("geographic filter has %d variants populated, want exactly one", populated)
	}

	switch g.Kind {
	case FilterNamedArea:
		if g.AreaName == "" {
			return fmt.Errorf("named-area filter has empty area name")
		}
	case FilterBoundingBox:
		if g.BBox == nil {
			return fmt.Errorf("bounding-box filter has no bounding box")
		}
		return g.BBox.Validate()
	case FilterPolygon:
		if len(g.Polygon) < 3 {
			return fmt.Errorf("polygon filter needs at least 3 points, got %d", len(g.Polygon))
		}
		for _, p := range g.Polygon {
			if p.Lat < -90 || p.Lat > 90 {
				return fmt.Errorf("polygon latitude %s out of range [-90, 90]", FormatCoord(p.Lat))
			}
			if p.Lon < -180 || p.Lon > 180 {
				return fmt.Errorf("polygon longitude %s out of range [-180, 180]", FormatCoord(p.Lon))
			}
		}
	default:
		return fmt.Errorf("unknown geographic filter kind %q", g.Kind)
	}
	return nil
}

// QueryConstraint is the assembled, immutable model of a query: an ordered
// set of tags, a non-empty set of element types, exactly one geographic
// filter, and an output format. Built once per request and discarded.
type QueryConstraint struct {
	Tags         []Tag            `json:"tags"`
	ElementTypes []ElementType    `json:"element_types"`
	Filter       GeographicFilter `json:"filter"`
	Format       OutputFormat     `json:"format"`
}

// NewQueryConstraint assembles a constraint. Duplicate tags are removed with
// insertion order preserved; an empty element-type set defaults to all three;
// an empty format defaults to json.
func NewQueryConstraint(tags []Tag, elements []ElementType, filter GeographicFilter, format OutputFormat) QueryConstraint {
	deduped := make([]Tag, 0, len(tags))
	seen := make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		deduped = append(deduped, t)
	}

	if len(elements) == 0 {
		elements = AllElementTypes()
	}
	if format == "" {
		format = FormatJSON
	}

	return QueryConstraint{
		Tags:         deduped,
		ElementTypes: elements,
		Filter:       filter,
		Format:       format,
	}
}

// Validate checks the constraint invariants.
func (qc QueryConstraint) Validate() error {
	if len(qc.Tags) == 0 {
		return fmt.Errorf("constraint must include at least one tag filter")
	}
	for _, t := range qc.Tags {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	if len(qc.ElementTypes) == 0 {
		return fmt.Errorf("constraint must include at least one element type")
	}
	for _, e := range qc.ElementTypes {
		if _, err := ParseElementType(string(e)); err != nil {
			return err
		}
	}
	if err := qc.Filter.Validate(); err != nil {
		return err
	}
	if _, err := ParseOutputFormat(string(qc.Format)); err != nil {
		return err
	}
	return nil
}
