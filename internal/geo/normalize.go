package geo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/seacable/atlas-backend/internal/apperr"
)

// NewProperties builds the full metadata schema from meta. Keys missing
// from meta, or given as empty strings, are stored as null.
func NewProperties(meta map[string]string) (geojson.Properties, error) {
	for key := range meta {
		if !isMetadataKey(key) {
			return nil, apperr.Validation("unknown metadata field %q", key)
		}
	}

	props := make(geojson.Properties, len(MetadataKeys))
	for _, key := range MetadataKeys {
		if v := strings.TrimSpace(meta[key]); v != "" {
			props[key] = v
		} else {
			props[key] = nil
		}
	}
	return props, nil
}

// NormalizeLine turns a coordinate sequence and its metadata into a
// LineString cable feature. Every input coordinate is kept.
func NormalizeLine(coords [][]float64, meta map[string]string) (Feature, error) {
	if len(coords) < 2 {
		return Feature{}, apperr.Validation("a cable route needs at least 2 coordinates, got %d", len(coords))
	}
	for i, c := range coords {
		if err := validateCoordinate(i, c); err != nil {
			return Feature{}, err
		}
	}
	if !hasDistinctPositions(coords) {
		return Feature{}, apperr.Validation("a cable route needs at least 2 distinct positions")
	}

	props, err := NewProperties(meta)
	if err != nil {
		return Feature{}, err
	}

	raw, err := json.Marshal(coords)
	if err != nil {
		return Feature{}, apperr.Validation("encode coordinates: %v", err)
	}

	return NewFeature(&Geometry{Type: TypeLineString, Coordinates: raw}, props), nil
}

// hasDistinctPositions reports whether coords hold two different lon/lat
// pairs. Depth is ignored.
func hasDistinctPositions(coords [][]float64) bool {
	for _, c := range coords[1:] {
		if c[0] != coords[0][0] || c[1] != coords[0][1] {
			return true
		}
	}
	return false
}

func validateCoordinate(i int, c []float64) error {
	if len(c) != 2 && len(c) != 3 {
		return apperr.Validation("coordinate %d must have 2 or 3 values, got %d", i, len(c))
	}
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperr.Validation("coordinate %d contains a non-finite value", i)
		}
	}
	if c[0] < -180 || c[0] > 180 {
		return apperr.Validation("coordinate %d longitude %g outside [-180, 180]", i, c[0])
	}
	if c[1] < -90 || c[1] > 90 {
		return apperr.Validation("coordinate %d latitude %g outside [-90, 90]", i, c[1])
	}
	return nil
}

// ParseCoordinates parses whitespace separated "lon,lat[,depth]" tuples,
// the layout used by KML coordinate elements.
func ParseCoordinates(raw string) ([][]float64, error) {
	fields := strings.Fields(raw)
	coords := make([][]float64, 0, len(fields))
	for i, tuple := range fields {
		parts := strings.Split(tuple, ",")
		if len(parts) != 2 && len(parts) != 3 {
			return nil, apperr.Validation("coordinate %d %q must have 2 or 3 values", i, tuple)
		}
		c := make([]float64, len(parts))
		for j, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, apperr.Validation("coordinate %d %q is not numeric", i, tuple)
			}
			c[j] = v
		}
		if err := validateCoordinate(i, c); err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	return coords, nil
}
