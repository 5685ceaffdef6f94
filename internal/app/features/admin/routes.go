package admin

import (
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin endpoints (typically under /api/admin).
// Despite the name, the dashboard is readable by all staff roles.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.StaffRoles...))

	r.Get("/stats", h.ServeStats)

	return r
}
