package assignments

import (
	"context"
	"net/http"

	casestore "github.com/glojourn/casehub/internal/app/store/cases"
	userstore "github.com/glojourn/casehub/internal/app/store/users"
	"github.com/glojourn/casehub/internal/app/system/httpjson"
	"github.com/glojourn/casehub/internal/app/system/timeouts"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves case assignment for managers and admins.
type Handler struct {
	DB    *mongo.Database
	Cases *casestore.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Cases: casestore.New(db),
		Users: userstore.New(db),
		Log:   logger,
	}
}

type assignRequest struct {
	CoordinatorID string `json:"coordinator_id"`
}

// HandleAssign handles POST /api/assignments/cases/{id}. The target user
// must exist and actually hold the coordinator role; anything else is a 404
// and the case stays untouched. An empty coordinator_id clears the
// assignment.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	caseID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid case ID")
		return
	}

	var req assignRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if req.CoordinatorID == "" {
		updated, err := h.Cases.ClearCoordinator(ctx, caseID)
		if err != nil {
			httpjson.NotFoundOrServerError(w, h.Log, "Case not found", "clear coordinator failed", err)
			return
		}
		httpjson.Write(w, http.StatusOK, updated)
		return
	}

	coordID, err := primitive.ObjectIDFromHex(req.CoordinatorID)
	if err != nil {
		httpjson.BadRequest(w, "Invalid coordinator ID")
		return
	}

	// Verify the target before writing anything.
	if _, err := h.Users.GetByRole(ctx, coordID, models.RoleCoordinator); err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Coordinator not found", "load coordinator failed", err)
		return
	}

	updated, err := h.Cases.AssignCoordinator(ctx, caseID, coordID)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Case not found", "assign coordinator failed", err)
		return
	}

	httpjson.Write(w, http.StatusOK, updated)
}

// ServeCoordinators handles GET /api/assignments/coordinators: the active
// coordinators available for assignment.
func (h *Handler) ServeCoordinators(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	coords, err := h.Users.ListActiveByRole(ctx, models.RoleCoordinator)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list coordinators failed", err)
		return
	}

	refs := make([]models.UserRef, 0, len(coords))
	for i := range coords {
		refs = append(refs, coords[i].Ref())
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"coordinators": refs})
}

type workloadEntry struct {
	Coordinator models.UserRef `json:"coordinator"`
	CaseCount   int64          `json:"case_count"`
}

// ServeWorkload handles GET /api/assignments/workload: per-coordinator
// assigned case counts, so managers can spread work.
func (h *Handler) ServeWorkload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	coords, err := h.Users.ListActiveByRole(ctx, models.RoleCoordinator)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list coordinators failed", err)
		return
	}

	entries := make([]workloadEntry, 0, len(coords))
	for i := range coords {
		count, err := h.Cases.CountByCoordinator(ctx, coords[i].ID)
		if err != nil {
			httpjson.ServerError(w, h.Log, "count coordinator cases failed", err)
			return
		}
		entries = append(entries, workloadEntry{
			Coordinator: coords[i].Ref(),
			CaseCount:   count,
		})
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"workload": entries})
}
