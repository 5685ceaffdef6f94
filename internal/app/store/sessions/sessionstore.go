package sessionstore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("sessions")}
}

// GetByID loads a session by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error) {
	var sess models.Session
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Create inserts a new consultation session.
func (s *Store) Create(ctx context.Context, sess models.Session) (models.Session, error) {
	sess.ID = primitive.NewObjectID()
	if sess.Status == "" {
		sess.Status = models.SessionStatusPending
	}
	if sess.DurationMinutes == 0 {
		sess.DurationMinutes = 30
	}

	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// Update holds the allow-listed session patch. Nil pointers mean "leave as
// is".
type Update struct {
	Date            *time.Time
	TimeSlot        *string
	DurationMinutes *int
	Status          *string
	Notes           *string
	MeetingLink     *string
	CoordinatorID   *primitive.ObjectID
}

// Update applies the patch and returns the updated session.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Session, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Date != nil {
		set["date"] = *upd.Date
	}
	if upd.TimeSlot != nil {
		set["time_slot"] = *upd.TimeSlot
	}
	if upd.DurationMinutes != nil {
		set["duration_minutes"] = *upd.DurationMinutes
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Notes != nil {
		set["notes"] = *upd.Notes
	}
	if upd.MeetingLink != nil {
		set["meeting_link"] = *upd.MeetingLink
	}
	if upd.CoordinatorID != nil {
		set["coordinator_id"] = *upd.CoordinatorID
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var sess models.Session
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Delete removes a session by ID. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns sessions matching the filter, most recent date first, plus
// the total count.
func (s *Store) List(ctx context.Context, filter bson.M, p paging.Params) ([]models.Session, int64, error) {
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "time_slot", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Session
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountUpcoming counts sessions dated now or later that are still pending
// or confirmed.
func (s *Store) CountUpcoming(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"date":   bson.M{"$gte": time.Now().UTC()},
		"status": bson.M{"$in": bson.A{models.SessionStatusPending, models.SessionStatusConfirmed}},
	})
}
