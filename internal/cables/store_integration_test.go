package cables_test

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/seacable/atlas-backend/internal/cables"
	"github.com/seacable/atlas-backend/internal/db"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStore_Integration(t *testing.T) {
	_ = godotenv.Load("../../.env.local")
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" || testing.Short() {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	d, err := db.Connect(dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(d) })
	require.NoError(t, cables.Init(d))

	ctx := context.Background()
	store := cables.NewStore(d)

	rec, err := store.Append(ctx, cables.NewRecord{
		Features: []geo.Feature{line(t, "IntegrationLink", []float64{10, 10}, []float64{11, 11})},
		Source:   "integration",
	})
	require.NoError(t, err)
	t.Cleanup(func() { d.Where("record_id = ?", rec.RecordID).Delete(&cables.CableRecord{}) })

	features, err := store.Features(ctx)
	require.NoError(t, err)
	assert.Contains(t, geo.CableNames(features), "IntegrationLink")

	recent, err := store.Records(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	assert.Equal(t, rec.RecordID, recent[0].RecordID)
	assert.Equal(t, []string{"IntegrationLink"}, []string(recent[0].CableNames))
}
