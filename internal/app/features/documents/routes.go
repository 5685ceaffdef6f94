package documents

import (
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Register adds the document endpoints to r, which is the /api/cases
// router shared with the cases feature; every document hangs off a case.
func Register(r chi.Router, h *Handler) {
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/{caseID}/documents", h.HandleUpload)
		pr.Get("/{caseID}/documents", h.ServeList)
		pr.Get("/{caseID}/document-requests", h.ServeRequests)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.StaffRoles...))
		pr.Post("/{caseID}/document-requests", h.HandleRequest)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Delete("/{caseID}/documents/{docID}", h.HandleDelete)
	})
}
