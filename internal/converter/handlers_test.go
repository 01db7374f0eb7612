package converter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seacable/atlas-backend/internal/cables"
	"github.com/seacable/atlas-backend/internal/converter"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/seacable/atlas-backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(store *cables.MemoryStore) http.Handler {
	h := converter.NewHandler(store, 1<<20, nil, zap.NewNop())
	return converter.SetupRoutes(h, nil)
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type uploadBody struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message"`
	BatchID    string                `json:"batch_id"`
	GeoJSON    geo.FeatureCollection `json:"geojson"`
	Advisories []string              `json:"advisories"`
	Error      string                `json:"error"`
}

func upload(t *testing.T, h http.Handler, filename, content string, fields map[string]string) (int, uploadBody) {
	t.Helper()
	body, ctype := multipartBody(t, filename, content, fields)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out uploadBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return rr.Code, out
}

func TestUpload_KML(t *testing.T) {
	h := newRouter(cables.NewMemoryStore())

	code, out := upload(t, h, "survey.KML", sampleKML, nil)
	require.Equal(t, http.StatusOK, code, out.Error)
	assert.True(t, out.Success)
	assert.Equal(t, "KML parsed successfully.", out.Message)
	assert.NotEmpty(t, out.BatchID)
	assert.Equal(t, "FeatureCollection", out.GeoJSON.Type)
	require.Len(t, out.GeoJSON.Features, 2)

	// Neither feature carries coded metadata yet.
	assert.Len(t, out.Advisories, 6)
	assert.Contains(t, out.Advisories, "AlphaLink Segment 1: "+geo.KeyStatus+" is missing")
}

func TestUpload_CSVWithChosenColumns(t *testing.T) {
	h := newRouter(cables.NewMemoryStore())

	csv := "north,east,id\n0,0,K1\n0,1,K1\n"
	code, out := upload(t, h, "route.csv", csv, map[string]string{
		"lat_column":  "north",
		"lon_column":  "east",
		"name_column": "id",
	})
	require.Equal(t, http.StatusOK, code, out.Error)
	require.Len(t, out.GeoJSON.Features, 1)
	assert.Equal(t, "K1", out.GeoJSON.Features[0].Property(geo.KeyName))
}

func TestUpload_Rejects(t *testing.T) {
	h := newRouter(cables.NewMemoryStore())

	code, out := upload(t, h, "", "", map[string]string{"note": "no file"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No file part in request.", out.Error)

	code, out = upload(t, h, "cables.shp", "shape", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out.Error, `"shp" not allowed`)

	code, out = upload(t, h, "cables.xlsx", "PK", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out.Error, "XLSX")

	code, out = upload(t, h, "cables.csv", "a,b\n1,2\n", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out.Error, "lat_column")
}

func TestUpload_XLSX(t *testing.T) {
	h := newRouter(cables.NewMemoryStore())

	book := workbook(t, map[string][][]any{
		"Route": {
			{"Latitude", "Longitude", "Depth (m)"},
			{50.1, -5.5, 10},
			{49.8, -7.2, 120},
			{48.9, -9.9, 3100},
		},
	})
	code, out := upload(t, h, "celtic_route.xlsx", book, map[string]string{"sheet": "Route"})
	require.Equal(t, http.StatusOK, code, out.Error)
	assert.Equal(t, "XLSX parsed successfully.", out.Message)
	require.Len(t, out.GeoJSON.Features, 1)

	f := out.GeoJSON.Features[0]
	assert.Equal(t, "celtic_route", f.Property(geo.KeyName))
	assert.JSONEq(t, `[[-5.5,50.1,10],[-7.2,49.8,120],[-9.9,48.9,3100]]`, string(f.Geometry.Coordinates))
}

func TestConfirm_AppendsRecord(t *testing.T) {
	store := cables.NewMemoryStore()
	h := newRouter(store)

	f, err := geo.NormalizeLine([][]float64{{0, 0}, {1, 1}}, map[string]string{geo.KeyName: "Edited"})
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]any{"geojson": geo.NewFeatureCollection([]geo.Feature{f})})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/confirm", bytes.NewReader(payload))
	req = req.WithContext(utils.WithUserID(req.Context(), "user-42"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out struct {
		Success  bool   `json:"success"`
		RecordID string `json:"record_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.RecordID)

	features, err := store.Features(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Edited"}, geo.CableNames(features))
}

func TestConfirm_Rejects(t *testing.T) {
	h := newRouter(cables.NewMemoryStore())

	cases := []struct{ body, want string }{
		{`{}`, "No GeoJSON provided."},
		{`not json`, "Invalid request body"},
		{`{"geojson":{"type":"FeatureCollection","features":[]}}`, "feature collection is empty"},
	}
	for _, tc := range cases {
		body, want := tc.body, tc.want
		req := httptest.NewRequest(http.MethodPost, "/confirm", strings.NewReader(body))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Contains(t, rr.Body.String(), want, body)
	}
}

func TestConfirm_Guarded(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	}
	h := converter.SetupRoutes(converter.NewHandler(cables.NewMemoryStore(), 1<<20, nil, zap.NewNop()), deny)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/confirm", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// The guard only covers insertion.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDownload(t *testing.T) {
	h := newRouter(cables.NewMemoryStore())

	body := `{"geojson":{"type":"Feature","properties":{"[Feature Name]: Name":"Solo"},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="converted.geojson"`, rr.Header().Get("Content-Disposition"))

	var fc geo.FeatureCollection
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Solo", fc.Features[0].Property(geo.KeyName))
}
