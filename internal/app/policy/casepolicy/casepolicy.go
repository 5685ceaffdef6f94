// Package casepolicy decides who may see and change cases.
//
// Visibility rules:
//   - Clients see only their own case
//   - Coordinators see cases assigned to them plus unassigned cases
//   - Managers see cases assigned to them plus cases held by coordinators
//     they supervise
//   - Admins see everything
//
// This package only builds filters and yes/no answers; it never touches the
// collections directly except to resolve supervision links.
package casepolicy

import (
	"context"
	"errors"

	"github.com/glojourn/casehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrForbidden is returned when the role has no case visibility at all.
var ErrForbidden = errors.New("role has no access to cases")

// coordinatorsUnderManager resolves which coordinators report to the given
// manager. Supervision links are not modeled yet, so every manager currently
// supervises no one and sees only cases assigned directly to them.
func coordinatorsUnderManager(ctx context.Context, db *mongo.Database, managerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return []primitive.ObjectID{}, nil
}

// ListFilter builds the Mongo filter for the cases a user may list.
// status and priority narrow the result when non-empty.
func ListFilter(ctx context.Context, db *mongo.Database, role string, userID primitive.ObjectID, status, priority string) (bson.M, error) {
	var filter bson.M

	switch role {
	case models.RoleClient:
		filter = bson.M{"client_id": userID}
	case models.RoleCoordinator:
		filter = bson.M{"$or": bson.A{
			bson.M{"assigned_coordinator_id": userID},
			bson.M{"assigned_coordinator_id": nil},
			bson.M{"assigned_coordinator_id": bson.M{"$exists": false}},
		}}
	case models.RoleManager:
		coordIDs, err := coordinatorsUnderManager(ctx, db, userID)
		if err != nil {
			return nil, err
		}
		filter = bson.M{"$or": bson.A{
			bson.M{"assigned_manager_id": userID},
			bson.M{"assigned_coordinator_id": bson.M{"$in": coordIDs}},
		}}
	case models.RoleAdmin:
		filter = bson.M{}
	default:
		return nil, ErrForbidden
	}

	if status != "" {
		filter["status"] = status
	}
	if priority != "" {
		filter["priority"] = priority
	}
	return filter, nil
}

// CanViewCase reports whether the user may read the given case.
func CanViewCase(role string, userID primitive.ObjectID, c *models.Case) bool {
	switch role {
	case models.RoleAdmin, models.RoleManager:
		return true
	case models.RoleCoordinator:
		return c.AssignedCoordinatorID == nil || *c.AssignedCoordinatorID == userID
	case models.RoleClient:
		return c.ClientID == userID
	default:
		return false
	}
}

// CanUpdateCase reports whether the user may modify the given case. Clients
// may change only their own case; staff may change any case they can see.
func CanUpdateCase(role string, userID primitive.ObjectID, c *models.Case) bool {
	if models.IsStaffRole(role) {
		return CanViewCase(role, userID, c)
	}
	return role == models.RoleClient && c.ClientID == userID
}

// CanDeleteCase reports whether the user may delete a case. Deletion is
// admin-only.
func CanDeleteCase(role string) bool {
	return role == models.RoleAdmin
}

// CanAssign reports whether the user may assign cases to coordinators.
func CanAssign(role string) bool {
	return role == models.RoleManager || role == models.RoleAdmin
}
