package cases

import (
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Register adds the case detail endpoints to r. The documents feature
// registers onto the same router, so patterns here must share the
// {caseID} parameter name with it.
func Register(r chi.Router, h *Handler) {
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/{caseID}", h.ServeView)
		pr.Post("/{caseID}/notes", h.HandleAddNote)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.StaffRoles...))
		pr.Put("/{caseID}", h.HandleUpdate)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Delete("/{caseID}", h.HandleDelete)
	})
}
