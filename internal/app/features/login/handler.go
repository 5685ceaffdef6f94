package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/glojourn/casehub/internal/app/store/users"
	"github.com/glojourn/casehub/internal/app/system/auth"
	"github.com/glojourn/casehub/internal/app/system/httpjson"
	"github.com/glojourn/casehub/internal/app/system/normalize"
	"github.com/glojourn/casehub/internal/app/system/ratelimit"
	"github.com/glojourn/casehub/internal/app/system/timeouts"
	"github.com/glojourn/casehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns registration, password login, and the session endpoints.
type Handler struct {
	Users      *userstore.Store
	Tokens     *auth.TokenManager
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, tokens *auth.TokenManager, sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		Tokens:     tokens,
		SessionMgr: sm,
		Limiter:    ratelimit.NewLoginLimiter(),
		Log:        logger,
	}
}

// userResponse is the public shape of a user. Password hashes never leave
// the store anyway (json:"-"), but handlers still build responses
// explicitly.
type userResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
	IsActive bool   `json:"is_active"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		Phone:    u.Phone,
		IsActive: u.IsActive,
	}
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// HandleRegister handles POST /api/auth/register. Self-registration always
// creates a client; staff accounts are provisioned by admins.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
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
		Role:         models.RoleClient,
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

	h.issue(w, r, &created)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login. Wrong email and wrong password
// produce the same 401 so the endpoint does not confirm which emails exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	ip := ratelimit.ClientIP(r)
	email := normalize.Email(req.Email)
	if !h.Limiter.Allow(ip, email) {
		h.Log.Warn("login rate limited", zap.String("ip", ip))
		httpjson.Error(w, http.StatusTooManyRequests, "Too many login attempts; try again later")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		httpjson.ServerError(w, h.Log, "load user failed", err)
		return
	}

	if !user.IsActive {
		httpjson.Error(w, http.StatusUnauthorized, "Account is deactivated")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		httpjson.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.Limiter.Success(ip, email)
	h.issue(w, r, user)
}

// HandleMe handles GET /api/auth/me. It re-reads the user so the response
// reflects role or status changes made since the token was issued.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "User not found", "load current user failed", err)
		return
	}

	httpjson.Write(w, http.StatusOK, toUserResponse(user))
}

// HandleLogout handles POST /api/auth/logout. Bearer tokens are stateless;
// this clears the cookie session for browser clients.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("session signout failed", zap.Error(err))
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// issue writes the session cookie and returns a bearer token plus the user.
func (h *Handler) issue(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, expires, err := h.Tokens.Generate(user.ID.Hex(), user.Role)
	if err != nil {
		httpjson.ServerError(w, h.Log, "token generation failed", err)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
		Role:  user.Role,
	}); err != nil {
		h.Log.Warn("session signin failed", zap.Error(err))
	}

	httpjson.Write(w, http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      toUserResponse(user),
	})
}
