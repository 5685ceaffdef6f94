package applications

import (
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the application endpoints (typically under
// /api/applications).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/my", h.ServeMine)
	r.Put("/my", h.HandleUpdateMine)

	return r
}
