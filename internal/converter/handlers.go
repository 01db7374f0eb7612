package converter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/seacable/atlas-backend/internal/apperr"
	"github.com/seacable/atlas-backend/internal/cables"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/seacable/atlas-backend/internal/metrics"
	"github.com/seacable/atlas-backend/internal/utils"
	"go.uber.org/zap"
)

type Handler struct {
	records   cables.Appender
	maxUpload int64
	metrics   *metrics.Collector
	log       *zap.Logger
}

// NewHandler serves the converter routes. Uploads larger than maxUpload
// bytes are refused. m may be nil.
func NewHandler(records cables.Appender, maxUpload int64, m *metrics.Collector, log *zap.Logger) *Handler {
	return &Handler{records: records, maxUpload: maxUpload, metrics: m, log: log}
}

type uploadResponse struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message"`
	BatchID    string                `json:"batch_id"`
	GeoJSON    geo.FeatureCollection `json:"geojson"`
	Advisories []string              `json:"advisories"`
}

// Upload converts a multipart "file" (.kml, .csv or .xlsx) into a feature
// collection preview. Nothing is stored.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			apperr.WriteMessage(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit))
			return
		}
		apperr.Write(w, h.log, apperr.Validation("invalid multipart form: %v", err))
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		apperr.Write(w, h.log, apperr.Validation("No file part in request."))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(hdr.Filename))
	var features []geo.Feature
	switch ext {
	case ".kml":
		features, err = ParseKML(file)
	case ".csv":
		features, err = ParseCSV(file, baseName(hdr.Filename), formColumns(r))
	case ".xlsx":
		features, err = ParseXLSX(file, baseName(hdr.Filename), r.FormValue("sheet"), formColumns(r))
	default:
		err = apperr.Validation("File extension %q not allowed.", strings.TrimPrefix(ext, "."))
	}
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	advisories := []string{}
	for _, f := range features {
		for _, a := range geo.Advisories(f) {
			advisories = append(advisories, f.Property(geo.KeyName)+": "+a)
		}
	}

	batch := utils.GenerateUUID()
	h.log.Info("upload converted",
		zap.String("batch_id", batch),
		zap.String("file", hdr.Filename),
		zap.Int("features", len(features)),
	)

	utils.WriteJSON(w, http.StatusOK, uploadResponse{
		Success:    true,
		Message:    fmt.Sprintf("%s parsed successfully.", strings.ToUpper(strings.TrimPrefix(ext, "."))),
		BatchID:    batch,
		GeoJSON:    geo.NewFeatureCollection(features),
		Advisories: advisories,
	})
}

func baseName(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

func formColumns(r *http.Request) Columns {
	return Columns{
		Lat:   r.FormValue("lat_column"),
		Lon:   r.FormValue("lon_column"),
		Depth: r.FormValue("depth_column"),
		Name:  r.FormValue("name_column"),
	}
}

type geojsonRequest struct {
	GeoJSON json.RawMessage `json:"geojson"`
}

func decodeGeoJSONBody(r *http.Request) ([]geo.Feature, error) {
	var req geojsonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperr.Validation("Invalid request body")
	}
	if len(req.GeoJSON) == 0 || string(req.GeoJSON) == "null" {
		return nil, apperr.Validation("No GeoJSON provided.")
	}
	return geo.DecodeRecord(req.GeoJSON)
}

type confirmResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	RecordID string `json:"record_id"`
}

// Confirm appends the reviewed feature collection as one new record.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	features, err := decodeGeoJSONBody(r)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	userID, _ := utils.GetUserIDFromContext(r.Context())
	rec, err := h.records.Append(r.Context(), cables.NewRecord{
		Features:   features,
		Source:     "converter",
		UploadedBy: userID,
	})
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	h.metrics.RecordAppended()
	h.log.Info("cable record appended",
		zap.String("record_id", rec.RecordID),
		zap.String("user_id", userID),
		zap.Strings("cables", rec.CableNames),
	)

	utils.WriteJSON(w, http.StatusOK, confirmResponse{
		Success:  true,
		Message:  "GeoJSON inserted into DB successfully.",
		RecordID: rec.RecordID,
	})
}

// Download echoes the posted feature collection as a converted.geojson
// attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	features, err := decodeGeoJSONBody(r)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	body, err := json.MarshalIndent(geo.NewFeatureCollection(features), "", "  ")
	if err != nil {
		apperr.Write(w, h.log, fmt.Errorf("encode download: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition", `attachment; filename="converted.geojson"`)
	_, _ = w.Write(body)
}
