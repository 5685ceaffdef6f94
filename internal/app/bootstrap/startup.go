// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/glojourn/casehub/internal/app/store/oauthstate"
	"github.com/glojourn/casehub/internal/app/system/normalize"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}

	// TTL indexes clean these up too, but a sweep at boot keeps dev
	// databases (where mongod may have been stopped for weeks) tidy.
	if n, err := oauthstate.New(deps.CaseHubMongoDatabase).CleanupExpired(ctx); err != nil {
		logger.Warn("oauth state cleanup failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("cleaned up expired oauth states", zap.Int64("removed", n))
	}

	return nil
}

// ensureAdmin guarantees an admin account exists for the configured email.
// An existing account is promoted (and reactivated); a missing one is
// created with Google sign-in, since there is no password to hand out.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	userColl := deps.CaseHubMongoDatabase.Collection("users")
	email = normalize.Email(email)

	var existing models.User
	err := userColl.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	if err == nil {
		if existing.Role == models.RoleAdmin && existing.IsActive {
			return nil
		}
		_, err = userColl.UpdateOne(ctx,
			bson.M{"_id": existing.ID},
			bson.M{"$set": bson.M{
				"role":       models.RoleAdmin,
				"is_active":  true,
				"updated_at": time.Now().UTC(),
			}},
		)
		if err != nil {
			return err
		}
		logger.Info("promoted existing user to admin",
			zap.String("user_id", existing.ID.Hex()))
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	now := time.Now().UTC()
	fullName := "Administrator"
	res, err := userColl.InsertOne(ctx, models.User{
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "google",
		Role:       models.RoleAdmin,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return err
	}
	logger.Info("created admin account",
		zap.Any("user_id", res.InsertedID))
	return nil
}
