package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	if rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context); ok {
		rctx.URLParams.Add(key, value)
		return r
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given name, email, and role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "password",
		Role:       role,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateInactiveUser creates a deactivated test user.
func (f *Fixtures) CreateInactiveUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	user := f.CreateUser(ctx, fullName, email, role)
	_, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		f.t.Fatalf("failed to deactivate test user: %v", err)
	}
	user.IsActive = false
	return user
}

// CreateCase creates a test case for the given client with sane defaults.
func (f *Fixtures) CreateCase(ctx context.Context, clientID primitive.ObjectID) models.Case {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Case{
		ID:       primitive.NewObjectID(),
		ClientID: clientID,
		VisaType: models.VisaTypeWork,
		ApplicationDetails: models.ApplicationDetails{
			DestinationCountry: "Canada",
			PurposeOfVisit:     "Employment",
		},
		Priority:  models.PriorityMedium,
		Status:    models.CaseStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("cases").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test case: %v", err)
	}
	return c
}

// CreateCaseWithStatus creates a test case with a specific status.
func (f *Fixtures) CreateCaseWithStatus(ctx context.Context, clientID primitive.ObjectID, status string) models.Case {
	f.t.Helper()

	c := f.CreateCase(ctx, clientID)
	_, err := f.db.Collection("cases").UpdateOne(ctx,
		bson.M{"_id": c.ID},
		bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		f.t.Fatalf("failed to set test case status: %v", err)
	}
	c.Status = status
	return c
}

// AssignCoordinator sets the assigned coordinator on a test case.
func (f *Fixtures) AssignCoordinator(ctx context.Context, caseID, coordinatorID primitive.ObjectID) {
	f.t.Helper()

	_, err := f.db.Collection("cases").UpdateOne(ctx,
		bson.M{"_id": caseID},
		bson.M{"$set": bson.M{"assigned_coordinator_id": coordinatorID}})
	if err != nil {
		f.t.Fatalf("failed to assign coordinator on test case: %v", err)
	}
}

// CreateSession creates a test consultation session.
func (f *Fixtures) CreateSession(ctx context.Context, clientID, createdByID primitive.ObjectID) models.Session {
	f.t.Helper()

	now := time.Now().UTC()
	sess := models.Session{
		ID:              primitive.NewObjectID(),
		ClientID:        clientID,
		Date:            now.AddDate(0, 0, 7),
		TimeSlot:        "10:00",
		DurationMinutes: 30,
		Status:          models.SessionStatusPending,
		CreatedByID:     createdByID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("sessions").InsertOne(ctx, sess); err != nil {
		f.t.Fatalf("failed to create test session: %v", err)
	}
	return sess
}

// CreateAutomation creates an active test automation with the given trigger
// and actions.
func (f *Fixtures) CreateAutomation(ctx context.Context, trigger models.Trigger, actions []models.Action) models.Automation {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Automation{
		ID:          primitive.NewObjectID(),
		Name:        "Test Automation",
		Description: "created by test fixture",
		Trigger:     trigger,
		Actions:     actions,
		IsActive:    true,
		CreatedByID: primitive.NewObjectID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("automations").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test automation: %v", err)
	}
	return a
}

// CreateDocument creates a test document record attached to a case.
func (f *Fixtures) CreateDocument(ctx context.Context, caseID, uploaderID primitive.ObjectID, docType string) models.Document {
	f.t.Helper()

	doc := models.Document{
		ID:           primitive.NewObjectID(),
		CaseID:       caseID,
		UploadedByID: uploaderID,
		DocType:      docType,
		FileName:     "passport.pdf",
		FilePath:     "documents/test/passport.pdf",
		FileSize:     2048,
		ContentType:  "application/pdf",
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := f.db.Collection("documents").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test document: %v", err)
	}
	return doc
}
