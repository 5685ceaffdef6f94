package automations

import (
	"context"
	"net/http"
	"strings"

	"github.com/glojourn/casehub/internal/app/automation"
	automationstore "github.com/glojourn/casehub/internal/app/store/automations"
	"github.com/glojourn/casehub/internal/app/system/authz"
	"github.com/glojourn/casehub/internal/app/system/httpjson"
	"github.com/glojourn/casehub/internal/app/system/timeouts"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the workflow automation endpoints. Admin only.
type Handler struct {
	Automations *automationstore.Store
	Executor    *automation.Executor
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Automations: automationstore.New(db),
		Executor:    automation.NewExecutor(db, logger),
		Log:         logger,
	}
}

// ServeList handles GET /api/automations.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	autos, err := h.Automations.List(ctx)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list automations failed", err)
		return
	}
	if autos == nil {
		autos = []models.Automation{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"automations": autos})
}

type upsertRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Trigger     models.Trigger  `json:"trigger"`
	Actions     []models.Action `json:"actions"`
	IsActive    *bool           `json:"is_active"`
}

func validate(req *upsertRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required"
	}
	if !models.IsValidTriggerType(req.Trigger.Type) {
		fields["trigger"] = "Invalid trigger type"
	}
	if len(req.Actions) == 0 {
		fields["actions"] = "At least one action is required"
	}
	for _, a := range req.Actions {
		// Unknown action types are tolerated at run time but rejected at
		// write time; there is no reason to save one on purpose.
		if !models.IsValidActionType(a.Type) {
			fields["actions"] = "Invalid action type: " + a.Type
			break
		}
	}
	return fields
}

// HandleCreate handles POST /api/automations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	var req upsertRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	if fields := validate(&req); len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Automations.Create(ctx, models.Automation{
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Actions:     req.Actions,
		IsActive:    active,
		CreatedByID: userID,
	})
	if err != nil {
		httpjson.ServerError(w, h.Log, "create automation failed", err)
		return
	}

	httpjson.Write(w, http.StatusCreated, created)
}

// HandleUpdate handles PUT /api/automations/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid automation ID")
		return
	}

	var req upsertRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	if fields := validate(&req); len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	updated, err := h.Automations.Update(ctx, id, automationstore.Update{
		Name:        &req.Name,
		Description: &req.Description,
		Trigger:     &req.Trigger,
		Actions:     &req.Actions,
		IsActive:    req.IsActive,
	})
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Automation not found", "update automation failed", err)
		return
	}

	httpjson.Write(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/automations/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid automation ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Automations.Delete(ctx, id)
	if err != nil {
		httpjson.ServerError(w, h.Log, "delete automation failed", err)
		return
	}
	if n == 0 {
		httpjson.NotFound(w, "Automation not found")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Automation deleted"})
}

type executeRequest struct {
	CaseID string `json:"case_id"`
}

// HandleExecute handles POST /api/automations/{id}/execute: run the
// automation right now against the target case named in the body.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "Invalid automation ID")
		return
	}

	var req executeRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	caseID, err := primitive.ObjectIDFromHex(req.CaseID)
	if err != nil {
		httpjson.BadRequest(w, "Invalid case ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	a, err := h.Automations.GetByID(ctx, id)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Automation not found", "load automation failed", err)
		return
	}
	if !a.IsActive {
		httpjson.BadRequest(w, "Automation is not active")
		return
	}

	c, err := h.Executor.Cases.GetByID(ctx, caseID)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "Case not found", "load target case failed", err)
		return
	}

	res, err := h.Executor.Execute(ctx, a, c)
	if err != nil {
		h.Log.Error("automation execution failed",
			zap.String("automation", a.ID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusUnprocessableEntity, "Automation execution failed")
		return
	}

	httpjson.Write(w, http.StatusOK, res)
}
