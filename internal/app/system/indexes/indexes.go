// Package indexes creates the Mongo indexes the queries depend on.
// Called once at startup from the EnsureSchema hook.
package indexes

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll creates every index the application needs. Creation is
// idempotent; existing indexes are left alone.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	type spec struct {
		collection string
		models     []mongo.IndexModel
	}

	specs := []spec{
		{
			collection: "users",
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "email", Value: 1}},
					Options: options.Index().SetName("idx_users_email").SetUnique(true),
				},
				{
					Keys:    bson.D{{Key: "role", Value: 1}, {Key: "is_active", Value: 1}},
					Options: options.Index().SetName("idx_users_role_active"),
				},
			},
		},
		{
			collection: "cases",
			models: []mongo.IndexModel{
				// One case per client is a real constraint, not just a
				// pre-insert check: concurrent creates race the check but
				// cannot both pass this index.
				{
					Keys:    bson.D{{Key: "client_id", Value: 1}},
					Options: options.Index().SetName("idx_cases_client").SetUnique(true),
				},
				{
					Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
					Options: options.Index().SetName("idx_cases_status_created"),
				},
				{
					Keys:    bson.D{{Key: "priority", Value: 1}},
					Options: options.Index().SetName("idx_cases_priority"),
				},
				{
					Keys:    bson.D{{Key: "assigned_coordinator_id", Value: 1}},
					Options: options.Index().SetName("idx_cases_coordinator"),
				},
				{
					Keys:    bson.D{{Key: "assigned_manager_id", Value: 1}},
					Options: options.Index().SetName("idx_cases_manager"),
				},
			},
		},
		{
			collection: "sessions",
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "date", Value: -1}, {Key: "time_slot", Value: -1}},
					Options: options.Index().SetName("idx_sessions_date_slot"),
				},
				{
					Keys:    bson.D{{Key: "status", Value: 1}},
					Options: options.Index().SetName("idx_sessions_status"),
				},
			},
		},
		{
			collection: "documents",
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "case_id", Value: 1}, {Key: "created_at", Value: -1}},
					Options: options.Index().SetName("idx_documents_case"),
				},
			},
		},
		{
			collection: "document_requests",
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "case_id", Value: 1}, {Key: "status", Value: 1}},
					Options: options.Index().SetName("idx_docrequests_case_status"),
				},
			},
		},
		{
			collection: "oauth_states",
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "state", Value: 1}},
					Options: options.Index().SetName("idx_oauth_state").SetUnique(true),
				},
				// TTL cleanup of abandoned OAuth flows.
				{
					Keys:    bson.D{{Key: "expires_at", Value: 1}},
					Options: options.Index().SetName("idx_oauth_ttl").SetExpireAfterSeconds(0),
				},
			},
		},
		{
			collection: "automations",
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "trigger.type", Value: 1}, {Key: "is_active", Value: 1}},
					Options: options.Index().SetName("idx_automations_trigger_active"),
				},
			},
		},
	}

	for _, s := range specs {
		if _, err := db.Collection(s.collection).Indexes().CreateMany(ctx, s.models); err != nil {
			logger.Error("index creation failed",
				zap.String("collection", s.collection),
				zap.Error(err))
			return err
		}
	}

	logger.Info("indexes ensured", zap.Int("collections", len(specs)))
	return nil
}
