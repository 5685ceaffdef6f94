package applications

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/glojourn/casehub/internal/app/automation"
	"github.com/glojourn/casehub/internal/app/policy/casepolicy"
	casestore "github.com/glojourn/casehub/internal/app/store/cases"
	"github.com/glojourn/casehub/internal/app/system/authz"
	"github.com/glojourn/casehub/internal/app/system/httpjson"
	"github.com/glojourn/casehub/internal/app/system/paging"
	"github.com/glojourn/casehub/internal/app/system/timeouts"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the visa application endpoints. "Application" is the
// client-facing name for a case; both route groups share the cases
// collection.
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

type listResponse struct {
	Applications []models.Case `json:"applications"`
	Pagination   paging.Meta   `json:"pagination"`
}

// ServeList handles GET /api/applications. Every role sees a different
// slice of the collection; the filter comes from casepolicy.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	p := paging.Parse(r)
	status := query.Get(r, "status")
	priority := query.Get(r, "priority")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter, err := casepolicy.ListFilter(ctx, h.DB, role, userID, status, priority)
	if err != nil {
		if errors.Is(err, casepolicy.ErrForbidden) {
			httpjson.Forbidden(w)
			return
		}
		httpjson.ServerError(w, h.Log, "build case filter failed", err)
		return
	}

	cases, total, err := h.Cases.List(ctx, filter, p)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list applications failed", err)
		return
	}
	if cases == nil {
		cases = []models.Case{}
	}

	httpjson.Write(w, http.StatusOK, listResponse{
		Applications: cases,
		Pagination:   p.MetaFor(total),
	})
}

// ServeMine handles GET /api/applications/my. Clients use this to load
// their single case without knowing its ID.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Cases.GetByClient(ctx, userID)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "No application found", "load own application failed", err)
		return
	}
	httpjson.Write(w, http.StatusOK, c)
}

type createRequest struct {
	VisaType           string                    `json:"visa_type"`
	ApplicationDetails models.ApplicationDetails `json:"application_details"`
	Priority           string                    `json:"priority"`
}

// HandleCreate handles POST /api/applications. One application per client;
// a second create returns 409 and leaves the original untouched.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	var req createRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	fields := map[string]string{}
	if !models.IsValidVisaType(req.VisaType) {
		fields["visa_type"] = "Invalid visa type"
	}
	if strings.TrimSpace(req.ApplicationDetails.DestinationCountry) == "" {
		fields["destination_country"] = "Destination country is required"
	}
	if req.Priority != "" && !models.IsValidPriority(req.Priority) {
		fields["priority"] = "Invalid priority"
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Cases.Create(ctx, models.Case{
		ClientID:           userID,
		VisaType:           req.VisaType,
		ApplicationDetails: req.ApplicationDetails,
		Priority:           req.Priority,
	})
	if err != nil {
		if errors.Is(err, casestore.ErrClientHasCase) {
			httpjson.Conflict(w, "You already have an application")
			return
		}
		httpjson.ServerError(w, h.Log, "create application failed", err)
		return
	}

	h.Executor.Fire(ctx, models.TriggerCaseCreated, &created)

	httpjson.Write(w, http.StatusCreated, created)
}

type updateRequest struct {
	VisaType           *string                    `json:"visa_type"`
	ApplicationDetails *models.ApplicationDetails `json:"application_details"`
	Priority           *string                    `json:"priority"`
	Status             *string                    `json:"status"`
}

// HandleUpdateMine handles PUT /api/applications/my. Only the allow-listed
// fields can change; ownership, assignment, and notes are immune to this
// endpoint.
func (h *Handler) HandleUpdateMine(w http.ResponseWriter, r *http.Request) {
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

	c, err := h.Cases.GetByClient(ctx, userID)
	if err != nil {
		httpjson.NotFoundOrServerError(w, h.Log, "No application found", "load own application failed", err)
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
		httpjson.NotFoundOrServerError(w, h.Log, "No application found", "update application failed", err)
		return
	}

	if req.Status != nil && *req.Status != c.Status {
		h.Executor.Fire(ctx, models.TriggerStatusChange, updated)
	}

	httpjson.Write(w, http.StatusOK, updated)
}
