package auth

import (
	"github.com/go-chi/chi/v5"
	"github.com/seacable/atlas-backend/internal/middleware"
)

func SetupRoutes(h *Handler, sessions middleware.SessionFetcher) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions))
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
		r.Post("/password", h.ChangePassword)
	})

	return r
}
