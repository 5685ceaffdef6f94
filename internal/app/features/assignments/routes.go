package assignments

import (
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the assignment endpoints (typically under
// /api/assignments). Manager and admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleManager, models.RoleAdmin))

	r.Post("/cases/{id}", h.HandleAssign)
	r.Get("/coordinators", h.ServeCoordinators)
	r.Get("/workload", h.ServeWorkload)

	return r
}
