package admin

import (
	"context"
	"net/http"

	casestore "github.com/glojourn/casehub/internal/app/store/cases"
	sessionstore "github.com/glojourn/casehub/internal/app/store/sessions"
	userstore "github.com/glojourn/casehub/internal/app/store/users"
	"github.com/glojourn/casehub/internal/app/system/httpjson"
	"github.com/glojourn/casehub/internal/app/system/paging"
	"github.com/glojourn/casehub/internal/app/system/timeouts"
	"github.com/glojourn/casehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin dashboard numbers.
type Handler struct {
	Users    *userstore.Store
	Cases    *casestore.Store
	Sessions *sessionstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Cases:    casestore.New(db),
		Sessions: sessionstore.New(db),
		Log:      logger,
	}
}

type statsResponse struct {
	Users            userstore.Stats `json:"users"`
	Cases            casestore.Stats `json:"cases"`
	UpcomingSessions int64           `json:"upcoming_sessions"`
	RecentCases      []models.Case   `json:"recent_cases"`
}

const recentCaseCount = 10

// ServeStats handles GET /api/admin/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	userStats, err := h.Users.GetStats(ctx)
	if err != nil {
		httpjson.ServerError(w, h.Log, "user stats failed", err)
		return
	}
	caseStats, err := h.Cases.GetStats(ctx)
	if err != nil {
		httpjson.ServerError(w, h.Log, "case stats failed", err)
		return
	}
	upcoming, err := h.Sessions.CountUpcoming(ctx)
	if err != nil {
		httpjson.ServerError(w, h.Log, "session stats failed", err)
		return
	}
	recent, _, err := h.Cases.List(ctx, bson.M{}, paging.Params{Page: 1, Limit: recentCaseCount})
	if err != nil {
		httpjson.ServerError(w, h.Log, "recent cases failed", err)
		return
	}
	if recent == nil {
		recent = []models.Case{}
	}

	httpjson.Write(w, http.StatusOK, statsResponse{
		Users:            userStats,
		Cases:            caseStats,
		UpcomingSessions: upcoming,
		RecentCases:      recent,
	})
}
