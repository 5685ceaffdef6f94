package users

import (
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the user administration endpoints (typically under
// /api/users).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleManager, models.RoleAdmin))
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Post("/{id}/toggle-active", h.HandleToggleActive)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
