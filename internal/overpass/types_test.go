package overpass

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTagValidate tests OSM tag constraint checking
func TestTagValidate(t *testing.T) {
	tests := []struct {
		name    string
		tag     Tag
		wantErr string
	}{
		{
			name: "simple amenity tag",
			tag:  Tag{Key: "amenity", Value: "cafe"},
		},
		{
			name: "namespaced key",
			tag:  Tag{Key: "diet:vegan", Value: "yes"},
		},
		{
			name: "empty value is allowed",
			tag:  Tag{Key: "amenity", Value: ""},
		},
		{
			name:    "empty key",
			tag:     Tag{Key: "", Value: "cafe"},
			wantErr: "must not be empty",
		},
		{
			name:    "key with spaces",
			tag:     Tag{Key: "fast food", Value: "yes"},
			wantErr: "invalid characters",
		},
		{
			name:    "overlong key",
			tag:     Tag{Key: strings.Repeat("k", 256), Value: "yes"},
			wantErr: "exceeds 255 characters",
		},
		{
			name:    "overlong value",
			tag:     Tag{Key: "amenity", Value: strings.Repeat("v", 256)},
			wantErr: "exceeds 255 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tag.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

// TestParseOutputFormat tests output format parsing and defaulting
func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected OutputFormat
		wantErr  bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{" xml ", FormatXML, false},
		{"geojson", FormatGeoJSON, false},
		{"csv", "", true},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			format, err := ParseOutputFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, format)
			}
		})
	}
}

// TestBoundingBoxValidate tests coordinate range and ordering checks
func TestBoundingBoxValidate(t *testing.T) {
	tests := []struct {
		name    string
		box     BoundingBox
		wantErr string
	}{
		{
			name: "valid box",
			box:  BoundingBox{South: 50.7, West: 7.0, North: 50.8, East: 7.2},
		},
		{
			name: "degenerate box with equal corners is valid",
			box:  BoundingBox{South: 50, West: 7, North: 50, East: 7},
		},
		{
			name:    "south exceeds north",
			box:     BoundingBox{South: 50, West: 10, North: 40, East: 10},
			wantErr: "south latitude 50 exceeds north latitude 40",
		},
		{
			name:    "west exceeds east",
			box:     BoundingBox{South: 40, West: 20, North: 50, East: 10},
			wantErr: "west longitude 20 exceeds east longitude 10",
		},
		{
			name:    "latitude out of range",
			box:     BoundingBox{South: -91, West: 0, North: 0, East: 0},
			wantErr: "south latitude -91 out of range",
		},
		{
			name:    "longitude out of range",
			box:     BoundingBox{South: 0, West: 0, North: 0, East: 180.5},
			wantErr: "east longitude 180.5 out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

// TestFormatCoord tests deterministic coordinate rendering
func TestFormatCoord(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{52.5, "52.5"},
		{-13.375, "-13.375"},
		{7, "7"},
		{0.1, "0.1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatCoord(tt.value))
	}
}

// TestGeographicFilterValidate tests the one-variant invariant
func TestGeographicFilterValidate(t *testing.T) {
	t.Run("named area", func(t *testing.T) {
		assert.NoError(t, NewNamedArea("Berlin").Validate())
	})

	t.Run("bounding box", func(t *testing.T) {
		filter := NewBoundingBoxFilter(BoundingBox{South: 50, West: 7, North: 51, East: 8})
		assert.NoError(t, filter.Validate())
	})

	t.Run("polygon", func(t *testing.T) {
		filter := NewPolygonFilter([]Point{{50, 7}, {51, 7}, {51, 8}})
		assert.NoError(t, filter.Validate())
	})

	t.Run("polygon too small", func(t *testing.T) {
		filter := NewPolygonFilter([]Point{{50, 7}, {51, 7}})
		err := filter.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 3 points")
	})

	t.Run("no variant populated", func(t *testing.T) {
		err := GeographicFilter{Kind: FilterNamedArea}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no variant populated")
	})

	t.Run("two variants populated", func(t *testing.T) {
		filter := GeographicFilter{
			Kind:     FilterNamedArea,
			AreaName: "Berlin",
			BBox:     &BoundingBox{South: 50, West: 7, North: 51, East: 8},
		}
		err := filter.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one")
	})
}

// TestNewQueryConstraint tests constraint assembly defaults
func TestNewQueryConstraint(t *testing.T) {
	t.Run("deduplicates tags preserving order", func(t *testing.T) {
		tags := []Tag{
			{Key: "amenity", Value: "cafe"},
			{Key: "shop", Value: "coffee"},
			{Key: "amenity", Value: "cafe"},
		}
		qc := NewQueryConstraint(tags, nil, NewNamedArea("Berlin"), FormatJSON)

		require.Len(t, qc.Tags, 2)
		assert.Equal(t, Tag{Key: "amenity", Value: "cafe"}, qc.Tags[0])
		assert.Equal(t, Tag{Key: "shop", Value: "coffee"}, qc.Tags[1])
	})

	t.Run("defaults element types to all three", func(t *testing.T) {
		qc := NewQueryConstraint([]Tag{{Key: "amenity", Value: "cafe"}}, nil, NewNamedArea("Berlin"), FormatJSON)
		assert.Equal(t, []ElementType{ElementNode, ElementWay, ElementRelation}, qc.ElementTypes)
	})

	t.Run("defaults empty format to json", func(t *testing.T) {
		qc := NewQueryConstraint([]Tag{{Key: "amenity", Value: "cafe"}}, nil, NewNamedArea("Berlin"), "")
		assert.Equal(t, FormatJSON, qc.Format)
	})
}

// TestQueryConstraintValidate tests constraint invariant checks
func TestQueryConstraintValidate(t *testing.T) {
	t.Run("valid constraint", func(t *testing.T) {
		qc := NewQueryConstraint([]Tag{{Key: "amenity", Value: "cafe"}}, nil, NewNamedArea("Berlin"), FormatJSON)
		assert.NoError(t, qc.Validate())
	})

	t.Run("no tags", func(t *testing.T) {
		qc := NewQueryConstraint(nil, nil, NewNamedArea("Berlin"), FormatJSON)
		err := qc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one tag")
	})

	t.Run("invalid filter", func(t *testing.T) {
		qc := NewQueryConstraint([]Tag{{Key: "amenity", Value: "cafe"}}, nil, GeographicFilter{Kind: FilterNamedArea}, FormatJSON)
		assert.Error(t, qc.Validate())
	})
}
