package overpass

import (
	"strconv"
	"strings"
)

// DefaultQueryTimeout is the execution timeout, in seconds, written into the
// query header. The Overpass server aborts queries that run longer.
const DefaultQueryTimeout = 25

// Assembler renders a QueryConstraint into Overpass QL text. Rendering is
// deterministic: identical constraints always produce byte-identical output,
// which makes rendered queries cacheable and tests reproducible.
type Assembler struct {
	timeout int
}

// NewAssembler creates an assembler with the standard execution timeout.
func NewAssembler() *Assembler {
	return &Assembler{timeout: DefaultQueryTimeout}
}

// Render produces the query text for the given constraint. Tags iterate in
// insertion order; within each tag, element types iterate node, way,
// relation. All statements are grouped in a single union so the result set
// is the logical OR across every tag/element-type pair. Comment lines are
// explanatory only and carry no query semantics.
func (a *Assembler) Render(qc QueryConstraint) string {
	var sb strings.Builder

	sb.WriteString("[out:")
	sb.WriteString(string(qc.Format))
	sb.WriteString("][timeout:")
	sb.WriteString(strconv.Itoa(a.timeout))
	sb.WriteString("];\n")

	inline := ""
	switch qc.Filter.Kind {
	case FilterNamedArea:
		sb.WriteString("// geographic filter\n")
		sb.WriteString(`area["name"="`)
		sb.WriteString(escapeQuoted(qc.Filter.AreaName))
		sb.WriteString("\"]->.searchArea;\n")
		inline = "(area.searchArea)"
	case FilterBoundingBox:
		sb.WriteString("// geographic filter applied inline per statement\n")
		inline = "(" + renderBBox(*qc.Filter.BBox) + ")"
	case FilterPolygon:
		sb.WriteString("// geographic filter applied inline per statement\n")
		inline = `(poly:"` + renderPolygon(qc.Filter.Polygon) + `")`
	}

	sb.WriteString("// feature filters\n")
	sb.WriteString("(\n")
	for _, tag := range qc.Tags {
		for _, elem := range qc.ElementTypes {
			sb.WriteString("  ")
			sb.WriteString(string(elem))
			sb.WriteString(`["`)
			sb.WriteString(escapeQuoted(tag.Key))
			sb.WriteString(`"="`)
			sb.WriteString(escapeQuoted(tag.Value))
			sb.WriteString(`"]`)
			sb.WriteString(inline)
			sb.WriteString(";\n")
		}
	}
	sb.WriteString(");\n")

	// Full bodies first, then recurse into way/relation members so their
	// geometry is complete, then the member skeletons.
	sb.WriteString("// output\n")
	sb.WriteString("out body;\n")
	sb.WriteString(">;\n")
	sb.WriteString("out skel qt;\n")

	return sb.String()
}

func renderBBox(b BoundingBox) string {
	return FormatCoord(b.South) + "," + FormatCoord(b.West) + "," +
		FormatCoord(b.North) + "," + FormatCoord(b.East)
}

func renderPolygon(points []Point) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, FormatCoord(p.Lat)+" "+FormatCoord(p.Lon))
	}
	return strings.Join(parts, " ")
}

func escapeQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
