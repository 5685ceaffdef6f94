package cases

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/glojourn/casehub/internal/app/automation"
	"github.com/glojourn/casehub/internal/app/policy/casepolicy"
	casestore "github.com/glojourn/casehub/internal/app/store/cases"
	"github.com/glojourn/casehub/internal/app/system/authz"
	"github.com/glojourn/casehub/internal/app/system/htmlsanitize"
	"github.com/glojourn/casehub/internal/app/system/httpjson"
	"github.com/glojourn/casehub/internal/app/system/timeouts"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxNoteLength bounds a single case note.
const maxNoteLength = 5000

// Handler serves the case detail endpoints used by staff.
type Handler struct {
	DB       *mongo.Database
	Cases    *casestore.Store
	Executor *automation.Executor
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Cases:    casestore.New(db),
		Executor: automation.NewExecutor(db, logger),
		Log:      logger,
	}
}

// loadCase parses {id} and loads the case, writing the error response on
// failure. Returns nil when the response has been written.
func (h *Handler) loadCase(ctx context.Context, w http.ResponseWriter, r *http.Request) *models.Case {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "caseID"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid case ID")
		return nil
	}

	c, err := h.Cases.GetByID(ctx, id)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Case not found", "load case failed", err)
		return nil
	}
	return c
}

// ServeView handles GET /api/cases/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c := h.loadCase(ctx, w, r)
	if c == nil {
		return
	}
	if !casepolicy.CanViewCase(role, userID, c) {
		httpjson.Forbidden(w)
		return
	}

	httpjson.Write(w, http.StatusOK, c)
}

type updateRequest struct {
	VisaType           *string                    `json:"visa_type"`
	ApplicationDetails *models.ApplicationDetails `json:"application_details"`
	Priority           *string                    `json:"priority"`
	Status             *string                    `json:"status"`
}

// HandleUpdate handles PUT /api/cases/{id}. The patch is allow-listed;
// client_id, assignments, and notes cannot be written here.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	var req updateRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	fields := map[string]string{}
	if req.VisaType != nil && !models.IsValidVisaType(*req.VisaType) {
		fields["visa_type"] = "Invalid visa type"
	}
	if req.Priority != nil && !models.IsValidPriority(*req.Priority) {
		fields["priority"] = "Invalid priority"
	}
	if req.Status != nil && !models.IsValidCaseStatus(*req.Status) {
		fields["status"] = "Invalid status"
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c := h.loadCase(ctx, w, r)
	if c == nil {
		return
	}
	if !casepolicy.CanUpdateCase(role, userID, c) {
		httpjson.Forbidden(w)
		return
	}

	updated, err := h.Cases.Update(ctx, c.ID, casestore.Update{
		VisaType:           req.VisaType,
		ApplicationDetails: req.ApplicationDetails,
		Priority:           req.Priority,
		Status:             req.Status,
	})
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Case not found", "update case failed", err)
		return
	}

	if req.Status != nil && *req.Status != c.Status {
		h.Executor.Fire(ctx, models.TriggerStatusChange, updated)
	}

	httpjson.Write(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/cases/{id}. Admin only (enforced again
// here in case routing changes).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}
	if !casepolicy.CanDeleteCase(role) {
		httpjson.Forbidden(w)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "caseID"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid case ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Cases.Delete(ctx, id)
	if err != nil {
		httpjson.ServerError(w, h.Log, "delete case failed", err)
		return
	}
	if n == 0 {
		httpjson.NotFound(w, "Case not found")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Case deleted"})
}

type noteRequest struct {
	Content string `json:"content"`
}

// HandleAddNote handles POST /api/cases/{id}/notes. Content is stripped of
// markup but otherwise stored verbatim; an empty or whitespace-only note is
// rejected.
func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	var req noteRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	content := htmlsanitize.Plain(req.Content)
	if strings.TrimSpace(content) == "" {
		httpjson.BadRequest(w, "Note content is required")
		return
	}
	if len(content) > maxNoteLength {
		httpjson.BadRequest(w, "Note content is too long")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c := h.loadCase(ctx, w, r)
	if c == nil {
		return
	}
	if !casepolicy.CanUpdateCase(role, userID, c) {
		httpjson.Forbidden(w)
		return
	}

	updated, err := h.Cases.AppendNote(ctx, c.ID, models.CaseNote{
		AuthorID:  userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Case not found", "append note failed", err)
		return
	}

	httpjson.Write(w, http.StatusCreated, updated)
}
