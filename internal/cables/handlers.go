package cables

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/seacable/atlas-backend/internal/apperr"
	"github.com/seacable/atlas-backend/internal/export"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/seacable/atlas-backend/internal/metrics"
	"github.com/seacable/atlas-backend/internal/utils"
	"go.uber.org/zap"
)

type Handler struct {
	source  FeatureSource
	zones   *geo.ZoneCatalog
	metrics *metrics.Collector
	log     *zap.Logger
}

// NewHandler serves the cable query routes. m may be nil.
func NewHandler(source FeatureSource, zones *geo.ZoneCatalog, m *metrics.Collector, log *zap.Logger) *Handler {
	return &Handler{source: source, zones: zones, metrics: m, log: log}
}

func cableParam(r *http.Request) (string, error) {
	name := strings.TrimSpace(r.URL.Query().Get("cable"))
	if name == "" {
		return "", apperr.Validation("missing required query parameter: cable")
	}
	return name, nil
}

// List returns the stored features that pass the Name, Status, Condition
// and CategoryOfCable filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	features, err := h.source.Features(r.Context())
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	filtered := geo.FilterFromQuery(r.URL.Query()).Apply(features)
	utils.WriteJSON(w, http.StatusOK, geo.NewFeatureCollection(filtered))
}

func (h *Handler) Names(w http.ResponseWriter, r *http.Request) {
	features, err := h.source.Features(r.Context())
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, geo.CableNames(features))
}

// Crossings reports where ?cable= crosses every other stored cable.
func (h *Handler) Crossings(w http.ResponseWriter, r *http.Request) {
	name, err := cableParam(r)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	start := time.Now()
	features, err := h.source.Features(r.Context())
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	loaded := time.Now()

	crossings, err := geo.CableCrossings(name, features)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	h.metrics.ObserveCrossings("cable", len(crossings))
	utils.AddServerTiming(w,
		utils.Timing{Name: "load", Duration: loaded.Sub(start)},
		utils.Timing{Name: "intersect", Duration: time.Since(loaded)},
	)
	utils.WriteJSON(w, http.StatusOK, crossings)
}

// ZoneCrossings reports where ?cable= crosses each polygon of the zone
// dataset named by the {label} path segment.
func (h *Handler) ZoneCrossings(w http.ResponseWriter, r *http.Request) {
	label, err := geo.ParseZoneLabel(chi.URLParam(r, "label"))
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	name, err := cableParam(r)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	start := time.Now()
	features, err := h.source.Features(r.Context())
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	cable, err := geo.AggregateCable(name, features)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	aggregated := time.Now()

	zones, err := h.zones.Load(label)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	if bad := geo.Defects(zones); len(bad) > 0 {
		h.log.Warn("zone dataset has malformed polygons",
			zap.String("zone", string(label)),
			zap.Int("malformed", len(bad)),
			zap.Error(bad[0].Defect),
		)
	}
	zonesLoaded := time.Now()

	crossings, err := geo.ZoneCrossings(label, cable, zones)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	h.metrics.ObserveCrossings(string(label), len(crossings))
	utils.AddServerTiming(w,
		utils.Timing{Name: "aggregate", Duration: aggregated.Sub(start)},
		utils.Timing{Name: "zones", Duration: zonesLoaded.Sub(aggregated)},
		utils.Timing{Name: "intersect", Duration: time.Since(zonesLoaded)},
	)
	utils.WriteJSON(w, http.StatusOK, crossings)
}

// ExportKML serves the filtered listing as a KML attachment.
func (h *Handler) ExportKML(w http.ResponseWriter, r *http.Request) {
	features, err := h.source.Features(r.Context())
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	filtered := geo.FilterFromQuery(r.URL.Query()).Apply(features)

	var buf bytes.Buffer
	if _, err := export.KML(&buf, "Submarine cables", filtered); err != nil {
		apperr.Write(w, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename("cables", "kml")+`"`)
	_, _ = w.Write(buf.Bytes())
}

type polylineResponse struct {
	Cable     string   `json:"cable"`
	Fragments int      `json:"fragments"`
	Polylines []string `json:"polylines"`
}

// Polyline returns the aggregated ?cable= geometry as encoded polylines.
func (h *Handler) Polyline(w http.ResponseWriter, r *http.Request) {
	name, err := cableParam(r)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	features, err := h.source.Features(r.Context())
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	cable, err := geo.AggregateCable(name, features)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	lines, err := export.Polylines(cable.Geometry)
	if err != nil {
		apperr.Write(w, h.log, apperr.Computation(err, "encode polyline for %q", cable.Name))
		return
	}

	utils.WriteJSON(w, http.StatusOK, polylineResponse{
		Cable:     cable.Name,
		Fragments: cable.Fragments,
		Polylines: lines,
	})
}
