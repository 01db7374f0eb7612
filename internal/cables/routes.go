package cables

import (
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/names", h.Names)
	r.Get("/crossings", h.Crossings)
	r.Get("/zones/{label}", h.ZoneCrossings)
	r.Get("/export.kml", h.ExportKML)
	r.Get("/polyline", h.Polyline)

	return r
}
