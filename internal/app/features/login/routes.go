package login

import (
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the auth endpoints (typically under /api/auth).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/me", h.HandleMe)
	})

	return r
}
