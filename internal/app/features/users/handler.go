package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/glojourn/casehub/internal/app/store/users"
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/glojourn/casehub/internal/app/system/authz"
	"github.com/glojourn/casehub/internal/app/system/httpjson"
	"github.com/glojourn/casehub/internal/app/system/normalize"
	"github.com/glojourn/casehub/internal/app/system/paging"
	"github.com/glojourn/casehub/internal/app/system/timeouts"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves user administration. Admin only, except ServeList which
// managers may also use.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users: userstore.New(db),
		Log:   logger,
	}
}

type listResponse struct {
	Users      []models.User `json:"users"`
	Pagination paging.Meta   `json:"pagination"`
}

// ServeList handles GET /api/users with optional ?role= filter.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role := query.Get(r, "role")
	if role != "" && !models.IsValidRole(role) {
		httpjson.BadRequest(w, "Invalid role filter")
		return
	}

	p := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, total, err := h.Users.List(ctx, role, p.Skip(), int64(p.Limit))
	if err != nil {
		httpjson.ServerError(w, h.Log, "list users failed", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	httpjson.Write(w, http.StatusOK, listResponse{
		Users:      users,
		Pagination: p.MetaFor(total),
	})
}

type createRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

// HandleCreate handles POST /api/users: admins provision accounts with any
// role, including staff.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.FullName) == "" {
		fields["full_name"] = "Full name is required"
	}
	if normalize.Email(req.Email) == "" {
		fields["email"] = "Email is required"
	}
	if len(req.Password) < 8 {
		fields["password"] = "Password must be at least 8 characters"
	}
	if !models.IsValidRole(req.Role) {
		fields["role"] = "Invalid role"
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpjson.ServerError(w, h.Log, "hash password failed", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Users.Create(ctx, models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		AuthMethod:   "password",
		Role:         req.Role,
		IsActive:     true,
		Phone:        strings.TrimSpace(req.Phone),
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpjson.Conflict(w, "A user with this email already exists")
			return
		}
		httpjson.ServerError(w, h.Log, "create user failed", err)
		return
	}

	httpjson.Write(w, http.StatusCreated, created)
}

// ServeView handles GET /api/users/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "User not found", "load user failed", err)
		return
	}
	httpjson.Write(w, http.StatusOK, u)
}

type updateRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

// HandleUpdate handles PUT /api/users/{id}. Role and email are not
// patchable; an account keeps its role for life.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid user ID")
		return
	}

	var req updateRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		httpjson.BadRequest(w, "Full name cannot be empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.Update(ctx, id, userstore.Update{
		FullName: req.FullName,
		Phone:    req.Phone,
		IsActive: req.IsActive,
	}); err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "User not found", "update user failed", err)
		return
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "User not found", "reload user failed", err)
		return
	}
	httpjson.Write(w, http.StatusOK, u)
}

// HandleToggleActive handles POST /api/users/{id}/toggle-active. Admins
// cannot deactivate themselves; that is how systems end up with zero
// admins.
func (h *Handler) HandleToggleActive(w http.ResponseWriter, r *http.Request) {
	_, _, selfID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid user ID")
		return
	}
	if id == selfID {
		httpjson.BadRequest(w, "You cannot deactivate your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	active, err := h.Users.ToggleActive(ctx, id)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "User not found", "toggle user failed", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"is_active": active})
}

// HandleDelete handles DELETE /api/users/{id}. Deactivation is the usual
// path; deletion is for accounts created by mistake. The self-guard from
// toggle applies here too.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, _, selfID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid user ID")
		return
	}
	if id == selfID {
		httpjson.BadRequest(w, "You cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Users.Delete(ctx, id)
	if err != nil {
		httpjson.ServerError(w, h.Log, "delete user failed", err)
		return
	}
	if deleted == 0 {
		httpjson.NotFound(w, "User not found")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "User deleted"})
}
