package export

import (
	"github.com/peterstace/simplefeatures/geom"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/twpayne/go-polyline"
)

// Polylines encodes each line part of g with the Google polyline algorithm
// (five decimal places, latitude first).
func Polylines(g geom.Geometry) ([]string, error) {
	parts, err := geo.LineParts(g)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(parts))
	for _, line := range parts {
		coords := make([][]float64, len(line))
		for i, p := range line {
			coords[i] = []float64{p.Lat(), p.Lon()}
		}
		out = append(out, string(polyline.EncodeCoords(coords)))
	}
	return out, nil
}
