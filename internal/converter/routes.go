package converter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the converter endpoints. confirmGuard wraps the
// insertion route; pass nil to leave it open to every session.
func SetupRoutes(h *Handler, confirmGuard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/upload", h.Upload)
	r.Post("/download", h.Download)

	r.Group(func(r chi.Router) {
		if confirmGuard != nil {
			r.Use(confirmGuard)
		}
		r.Post("/confirm", h.Confirm)
	})

	return r
}
