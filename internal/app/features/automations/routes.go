package automations

import (
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the automation endpoints (typically under
// /api/automations). Admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleAdmin))

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/execute", h.HandleExecute)

	return r
}
