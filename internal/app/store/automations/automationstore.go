package automationstore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("automations")}
}

// GetByID loads an automation by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Automation, error) {
	var a models.Automation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns all automations, newest first.
func (s *Store) List(ctx context.Context) ([]models.Automation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Automation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveByTrigger returns active automations whose trigger type matches.
func (s *Store) ListActiveByTrigger(ctx context.Context, triggerType string) ([]models.Automation, error) {
	cur, err := s.c.Find(ctx, bson.M{"trigger.type": triggerType, "is_active": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Automation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new automation.
func (s *Store) Create(ctx context.Context, a models.Automation) (models.Automation, error) {
	a.ID = primitive.NewObjectID()
	if a.Actions == nil {
		a.Actions = []models.Action{}
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Automation{}, err
	}
	return a, nil
}

// Update holds the allow-listed automation patch. Nil pointers mean "leave
// as is".
type Update struct {
	Name        *string
	Description *string
	Trigger     *models.Trigger
	Actions     *[]models.Action
	IsActive    *bool
}

// Update applies the patch and returns the updated automation.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Automation, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Trigger != nil {
		set["trigger"] = *upd.Trigger
	}
	if upd.Actions != nil {
		set["actions"] = *upd.Actions
	}
	if upd.IsActive != nil {
		set["is_active"] = *upd.IsActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var a models.Automation
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete removes an automation by ID. Returns the number of documents
// deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// RecordExecution stamps last_executed and bumps the execution counter.
// Called only after every action of a run succeeded.
func (s *Store) RecordExecution(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_executed": time.Now().UTC()},
		"$inc": bson.M{"execution_count": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
