package sessions

import (
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the session endpoints (typically under /api/sessions).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Put("/{id}", h.HandleUpdate)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.StaffRoles...))
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
