package sessions

import (
	"context"
	"net/http"
	"strings"
	"time"

	sessionstore "github.com/glojourn/casehub/internal/app/store/sessions"
	userstore "github.com/glojourn/casehub/internal/app/store/users"
	"github.com/glojourn/casehub/internal/app/system/authz"
	"github.com/glojourn/casehub/internal/app/system/httpjson"
	"github.com/glojourn/casehub/internal/app/system/paging"
	"github.com/glojourn/casehub/internal/app/system/timeouts"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the consultation session endpoints.
type Handler struct {
	DB       *mongo.Database
	Sessions *sessionstore.Store
	Users    *userstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Sessions: sessionstore.New(db),
		Users:    userstore.New(db),
		Log:      logger,
	}
}

type listResponse struct {
	Sessions   []models.Session `json:"sessions"`
	Pagination paging.Meta      `json:"pagination"`
}

// ServeList handles GET /api/sessions. Clients see their own sessions;
// staff see everything, optionally narrowed by ?status=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	filter := bson.M{}
	switch {
	case role == models.RoleClient:
		filter["client_id"] = userID
	case models.IsStaffRole(role):
		// staff see all
	default:
		httpjson.Forbidden(w)
		return
	}

	if status := query.Get(r, "status"); status != "" {
		if !models.IsValidSessionStatus(status) {
			httpjson.BadRequest(w, "Invalid session status")
			return
		}
		filter["status"] = status
	}

	p := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sessions, total, err := h.Sessions.List(ctx, filter, p)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list sessions failed", err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}

	httpjson.Write(w, http.StatusOK, listResponse{
		Sessions:   sessions,
		Pagination: p.MetaFor(total),
	})
}

type createRequest struct {
	ClientID        string    `json:"client_id"`
	CoordinatorID   string    `json:"coordinator_id"`
	Date            time.Time `json:"date"`
	TimeSlot        string    `json:"time_slot"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}

// HandleCreate handles POST /api/sessions. Clients book for themselves;
// staff may book on behalf of any client via client_id.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	var req createRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	clientID := userID
	if models.IsStaffRole(role) && req.ClientID != "" {
		parsed, err := primitive.ObjectIDFromHex(req.ClientID)
		if err != nil {
			httpjson.BadRequest(w, "Invalid client ID")
			return
		}
		clientID = parsed
	}

	fields := map[string]string{}
	if req.Date.IsZero() {
		fields["date"] = "Date is required"
	} else if req.Date.Before(time.Now().UTC()) {
		fields["date"] = "Date must be in the future"
	}
	if strings.TrimSpace(req.TimeSlot) == "" {
		fields["time_slot"] = "Time slot is required"
	}
	// Zero means the store default.
	if req.DurationMinutes < 0 || req.DurationMinutes > 240 {
		fields["duration_minutes"] = "Duration must be at most 240 minutes"
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var coordinatorID *primitive.ObjectID
	if models.IsStaffRole(role) && req.CoordinatorID != "" {
		parsed, err := primitive.ObjectIDFromHex(req.CoordinatorID)
		if err != nil {
			httpjson.BadRequest(w, "Invalid coordinator ID")
			return
		}
		if _, err := h.Users.GetByRole(ctx, parsed, models.RoleCoordinator); err != nil {
			httpjson.NotFoundOrServerError(w, h.Log, "Coordinator not found", "load coordinator failed", err)
			return
		}
		coordinatorID = &parsed
	}

	created, err := h.Sessions.Create(ctx, models.Session{
		ClientID:        clientID,
		CoordinatorID:   coordinatorID,
		Date:            req.Date.UTC(),
		TimeSlot:        req.TimeSlot,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		CreatedByID:     userID,
	})
	if err != nil {
		httpjson.ServerError(w, h.Log, "create session failed", err)
		return
	}

	httpjson.Write(w, http.StatusCreated, created)
}

type updateRequest struct {
	Date            *time.Time `json:"date"`
	TimeSlot        *string    `json:"time_slot"`
	DurationMinutes *int       `json:"duration_minutes"`
	Status          *string    `json:"status"`
	Notes           *string    `json:"notes"`
	MeetingLink     *string    `json:"meeting_link"`
	CoordinatorID   *string    `json:"coordinator_id"`
}

// HandleUpdate handles PUT /api/sessions/{id}. Clients may only cancel
// their own sessions; staff may change anything.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid session ID")
		return
	}

	var req updateRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	if req.Status != nil && !models.IsValidSessionStatus(*req.Status) {
		httpjson.BadRequest(w, "Invalid session status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Session not found", "load session failed", err)
		return
	}

	upd := sessionstore.Update{}
	if models.IsStaffRole(role) {
		upd.Date = req.Date
		upd.TimeSlot = req.TimeSlot
		upd.DurationMinutes = req.DurationMinutes
		upd.Status = req.Status
		upd.Notes = req.Notes
		upd.MeetingLink = req.MeetingLink
		if req.CoordinatorID != nil {
			coordID, err := primitive.ObjectIDFromHex(*req.CoordinatorID)
			if err != nil {
				httpjson.BadRequest(w, "Invalid coordinator ID")
				return
			}
			if _, err := h.Users.GetByRole(ctx, coordID, models.RoleCoordinator); err != nil {
				httpjson.NotFoundOrServerError(w, h.Log, "Coordinator not found", "load coordinator failed", err)
				return
			}
			upd.CoordinatorID = &coordID
		}
	} else {
		if existing.ClientID != userID {
			httpjson.Forbidden(w)
			return
		}
		// Clients may only cancel.
		if req.Status == nil || *req.Status != models.SessionStatusCancelled {
			httpjson.Forbidden(w)
			return
		}
		upd.Status = req.Status
	}

	updated, err := h.Sessions.Update(ctx, id, upd)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Session not found", "update session failed", err)
		return
	}

	httpjson.Write(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/sessions/{id}. Staff only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid session ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Sessions.Delete(ctx, id)
	if err != nil {
		httpjson.ServerError(w, h.Log, "delete session failed", err)
		return
	}
	if n == 0 {
		httpjson.NotFound(w, "Session not found")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Session deleted"})
}
