package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/glojourn/casehub/internal/app/system/normalize"
	"github.com/glojourn/casehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "client"|"coordinator"|"manager"|"admin"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByRole loads a user by ObjectID, returning mongo.ErrNoDocuments if the
// user does not exist or does not hold the given role. Assignment endpoints
// use this to reject "assign to a user who is not a coordinator".
func (s *Store) GetByRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "role": role}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FirstActiveByRole returns the first active user holding the given role,
// in insertion order. This is the automation executor's assignment policy:
// first match, no load balancing.
func (s *Store) FirstActiveByRole(ctx context.Context, role string) (*models.User, error) {
	var u models.User
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := s.c.FindOne(ctx, bson.M{"role": role, "is_active": true}, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListActiveByRole returns all active users with the given role, sorted by
// folded name.
func (s *Store) ListActiveByRole(ctx context.Context, role string) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"role": role, "is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns users matching the optional role filter, newest first, with
// offset pagination, plus the total count for the filter.
func (s *Store) List(ctx context.Context, role string, skip, limit int64) ([]models.User, int64, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)

	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Update holds the allow-listed fields staff may change on a user. Nil
// pointers mean "leave as is".
type Update struct {
	FullName *string
	Phone    *string
	IsActive *bool
}

// Update applies the allow-listed patch. Role and email are deliberately
// not patchable here.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.FullName != nil {
		name := normalize.Name(*upd.FullName)
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.IsActive != nil {
		set["is_active"] = *upd.IsActive
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ToggleActive flips is_active and returns the new value.
func (s *Store) ToggleActive(ctx context.Context, id primitive.ObjectID) (bool, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	next := !u.IsActive
	_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_active":  next,
		"updated_at": time.Now().UTC(),
	}})
	return next, err
}

// Delete removes a user by ID. Returns the number of documents deleted
// (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// RoleCount is one bucket of the by-role aggregation.
type RoleCount struct {
	Role  string `bson:"_id" json:"role"`
	Count int64  `bson:"count" json:"count"`
}

// Stats holds the user numbers for the admin dashboard.
type Stats struct {
	Total  int64       `json:"total"`
	Active int64       `json:"active"`
	ByRole []RoleCount `json:"by_role"`
}

// GetStats counts users overall, active, and grouped by role.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error

	if st.Total, err = s.c.CountDocuments(ctx, bson.M{}); err != nil {
		return st, err
	}
	if st.Active, err = s.c.CountDocuments(ctx, bson.M{"is_active": true}); err != nil {
		return st, err
	}

	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return st, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &st.ByRole); err != nil {
		return st, err
	}
	return st, nil
}
