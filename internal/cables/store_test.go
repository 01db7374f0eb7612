package cables_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/seacable/atlas-backend/internal/apperr"
	"github.com/seacable/atlas-backend/internal/cables"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare(t *testing.T) {
	ok := line(t, "AlphaLink", []float64{0, 0}, []float64{1, 1})

	rec, err := cables.Prepare(cables.NewRecord{
		Features:   []geo.Feature{ok, ok},
		Source:     "upload.kml",
		UploadedBy: "user-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.RecordID)
	assert.Equal(t, 2, rec.FeatureCount)
	assert.Equal(t, []string{"AlphaLink"}, []string(rec.CableNames))
	assert.Equal(t, "upload.kml", rec.Source)
	assert.Equal(t, "user-1", rec.UploadedBy)

	back, err := geo.DecodeRecord([]byte(rec.FeatureCollection))
	require.NoError(t, err)
	assert.Len(t, back, 2)
}

func TestPrepare_Rejects(t *testing.T) {
	cases := map[string][]geo.Feature{
		"empty":       nil,
		"no geometry": {geo.NewFeature(nil, nil)},
		"bad coords":  {geo.NewFeature(&geo.Geometry{Type: geo.TypeLineString, Coordinates: []byte(`"nope"`)}, nil)},
	}
	for name, features := range cases {
		_, err := cables.Prepare(cables.NewRecord{Features: features})
		assert.True(t, apperr.Is(err, apperr.KindValidation), name)
	}
}

func TestMemoryStore_AppendOnly(t *testing.T) {
	ctx := context.Background()
	store := cables.NewMemoryStore()

	first, err := store.Append(ctx, cables.NewRecord{Features: []geo.Feature{line(t, "A", []float64{0, 0}, []float64{1, 0})}})
	require.NoError(t, err)
	second, err := store.Append(ctx, cables.NewRecord{Features: []geo.Feature{line(t, "B", []float64{0, 1}, []float64{1, 1})}})
	require.NoError(t, err)
	assert.Less(t, first.Seq, second.Seq)
	assert.NotEqual(t, first.RecordID, second.RecordID)

	_, err = store.Append(ctx, cables.NewRecord{})
	require.Error(t, err)

	features, err := store.Features(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, geo.CableNames(features))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("b.geojson", `{"type":"Feature","properties":{"[Feature Name]: Name":"Second"},"geometry":{"type":"LineString","coordinates":[[0,1],[1,1]]}}`)
	write("a.geojson", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"[Feature Name]: Name":"First"},"geometry":{"type":"LineString","coordinates":[[0,0],[1,0]]}}]}`)
	write("notes.txt", "ignored")

	ctx := context.Background()
	store := cables.NewMemoryStore()
	records, err := cables.LoadDir(ctx, store, dir)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.geojson", records[0].Source)
	assert.Equal(t, "b.geojson", records[1].Source)

	features, err := store.Features(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second"}, geo.CableNames(features))
}

func TestLoadDir_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.geojson"), []byte(`{"type":`), 0o644))

	_, err := cables.LoadDir(context.Background(), cables.NewMemoryStore(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.geojson")
}
