package geo_test

import (
	"testing"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/stretchr/testify/require"
)

// cable builds a named LineString feature through the normalizer.
func cable(t *testing.T, name string, coords ...[]float64) geo.Feature {
	t.Helper()
	f, err := geo.NormalizeLine(coords, map[string]string{geo.KeyName: name})
	require.NoError(t, err)
	return f
}

func mustGeom(t *testing.T, geojson string) geom.Geometry {
	t.Helper()
	g, err := geom.UnmarshalGeoJSON([]byte(geojson))
	require.NoError(t, err)
	return g
}

func pt(lon, lat float64) []float64 { return []float64{lon, lat} }
