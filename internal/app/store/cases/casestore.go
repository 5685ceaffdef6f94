package casestore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/glojourn/casehub/internal/app/system/paging"
	"github.com/glojourn/casehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cases")}
}

// ErrClientHasCase is returned when a client who already has a case tries to
// open another one.
var ErrClientHasCase = errors.New("client already has a case")

// GetByID loads a case by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	var c models.Case
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByClient loads the case owned by the given client.
func (s *Store) GetByClient(ctx context.Context, clientID primitive.ObjectID) (*models.Case, error) {
	var c models.Case
	if err := s.c.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new case for a client. A client may only have one case;
// the friendly pre-check catches the common path and the unique index on
// client_id closes the race.
func (s *Store) Create(ctx context.Context, c models.Case) (models.Case, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{"client_id": c.ClientID})
	if err != nil {
		return models.Case{}, err
	}
	if count > 0 {
		return models.Case{}, ErrClientHasCase
	}

	c.ID = primitive.NewObjectID()
	if c.Status == "" {
		c.Status = models.CaseStatusDraft
	}
	if c.Priority == "" {
		c.Priority = models.PriorityMedium
	}
	if c.Notes == nil {
		c.Notes = []models.CaseNote{}
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Case{}, ErrClientHasCase
		}
		return models.Case{}, err
	}
	return c, nil
}

// Update holds the allow-listed patch a caller may apply to a case. Nil
// pointers mean "leave as is". Assignment fields and notes have their own
// operations and are deliberately absent.
type Update struct {
	VisaType           *string
	ApplicationDetails *models.ApplicationDetails
	Priority           *string
	Status             *string
}

// Update applies the patch and returns the updated case.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Case, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.VisaType != nil {
		set["visa_type"] = *upd.VisaType
	}
	if upd.ApplicationDetails != nil {
		set["application_details"] = *upd.ApplicationDetails
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Case
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SetStatus changes only the case status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AssignCoordinator sets the assigned coordinator on a case and returns the
// updated document.
func (s *Store) AssignCoordinator(ctx context.Context, caseID, coordinatorID primitive.ObjectID) (*models.Case, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Case
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": caseID},
		bson.M{"$set": bson.M{
			"assigned_coordinator_id": coordinatorID,
			"updated_at":              time.Now().UTC(),
		}},
		opts).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AssignManager sets the assigned manager on a case and returns the
// updated document.
func (s *Store) AssignManager(ctx context.Context, caseID, managerID primitive.ObjectID) (*models.Case, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Case
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": caseID},
		bson.M{"$set": bson.M{
			"assigned_manager_id": managerID,
			"updated_at":          time.Now().UTC(),
		}},
		opts).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ClearCoordinator removes the coordinator assignment from a case and
// returns the updated document.
func (s *Store) ClearCoordinator(ctx context.Context, caseID primitive.ObjectID) (*models.Case, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Case
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": caseID},
		bson.M{
			"$unset": bson.M{"assigned_coordinator_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		},
		opts).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AppendNote pushes a note onto the case and returns the updated document.
func (s *Store) AppendNote(ctx context.Context, caseID primitive.ObjectID, note models.CaseNote) (*models.Case, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Case
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": caseID},
		bson.M{
			"$push": bson.M{"notes": note},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		opts).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes a case by ID. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns cases matching the filter, newest first, plus the total count
// for pagination.
func (s *Store) List(ctx context.Context, filter bson.M, p paging.Params) ([]models.Case, int64, error) {
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Case
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountByCoordinator returns how many in-flight cases are assigned to the
// coordinator. Approved, rejected, and completed cases do not count toward
// workload.
func (s *Store) CountByCoordinator(ctx context.Context, coordinatorID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"assigned_coordinator_id": coordinatorID,
		"status": bson.M{"$in": []string{
			models.CaseStatusDraft,
			models.CaseStatusSubmitted,
			models.CaseStatusUnderReview,
		}},
	})
}

// StatusCount is one bucket of the by-status aggregation.
type StatusCount struct {
	Status string `bson:"_id" json:"status"`
	Count  int64  `bson:"count" json:"count"`
}

// PriorityCount is one bucket of the by-priority aggregation.
type PriorityCount struct {
	Priority string `bson:"_id" json:"priority"`
	Count    int64  `bson:"count" json:"count"`
}

// Stats holds the case numbers for the admin dashboard.
type Stats struct {
	Total      int64           `json:"total"`
	Unassigned int64           `json:"unassigned"`
	ByStatus   []StatusCount   `json:"by_status"`
	ByPriority []PriorityCount `json:"by_priority"`
}

// GetStats counts cases overall, unassigned, and grouped by status and
// priority.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error

	if st.Total, err = s.c.CountDocuments(ctx, bson.M{}); err != nil {
		return st, err
	}

	unassigned := bson.M{"$or": bson.A{
		bson.M{"assigned_coordinator_id": nil},
		bson.M{"assigned_coordinator_id": bson.M{"$exists": false}},
	}}
	if st.Unassigned, err = s.c.CountDocuments(ctx, unassigned); err != nil {
		return st, err
	}

	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return st, err
	}
	if err := cur.All(ctx, &st.ByStatus); err != nil {
		cur.Close(ctx)
		return st, err
	}

	cur, err = s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$priority", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return st, err
	}
	if err := cur.All(ctx, &st.ByPriority); err != nil {
		cur.Close(ctx)
		return st, err
	}
	return st, nil
}
