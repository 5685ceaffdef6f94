package documentstore

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
	docs     *mongo.Collection
	requests *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		docs:     db.Collection("documents"),
		requests: db.Collection("document_requests"),
	}
}

// GetByID loads a document record by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	var d models.Document
	if err := s.docs.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document record.
func (s *Store) Create(ctx context.Context, d models.Document) (models.Document, error) {
	d.ID = primitive.NewObjectID()
	d.CreatedAt = time.Now().UTC()

	if _, err := s.docs.InsertOne(ctx, d); err != nil {
		return models.Document{}, err
	}
	return d, nil
}

// ListByCase returns the documents attached to a case, newest first.
func (s *Store) ListByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.docs.Find(ctx, bson.M{"case_id": caseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Document
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a document record by ID. Returns the number of documents
// deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.docs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CreateRequest inserts a staff request for a client to upload a document.
func (s *Store) CreateRequest(ctx context.Context, req models.DocumentRequest) (models.DocumentRequest, error) {
	req.ID = primitive.NewObjectID()
	if req.Status == "" {
		req.Status = "pending"
	}
	req.CreatedAt = time.Now().UTC()

	if _, err := s.requests.InsertOne(ctx, req); err != nil {
		return models.DocumentRequest{}, err
	}
	return req, nil
}

// ListRequestsByCase returns the document requests for a case, newest first.
func (s *Store) ListRequestsByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.DocumentRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.requests.Find(ctx, bson.M{"case_id": caseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.DocumentRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FulfillRequests marks pending requests for the given case and document
// type as fulfilled. Returns how many were updated.
func (s *Store) FulfillRequests(ctx context.Context, caseID primitive.ObjectID, docType string) (int64, error) {
	res, err := s.requests.UpdateMany(ctx,
		bson.M{"case_id": caseID, "document_type": docType, "status": "pending"},
		bson.M{"$set": bson.M{"status": "fulfilled"}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
