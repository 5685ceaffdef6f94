package bootstrap

import (
	"testing"
	"time"

	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/glojourn/casehub/internal/testutil"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{CaseHubMongoDatabase: db}

	if err := ensureAdmin(ctx, deps, "Admin@Example.com", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "admin@example.com"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", user.Role)
	}
	if !user.IsActive {
		t.Error("created admin should be active")
	}
	if user.AuthMethod != "google" {
		t.Errorf("auth_method = %q, want google", user.AuthMethod)
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	existing := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   "Existing User",
		FullNameCI: text.Fold("Existing User"),
		Email:      "existing@example.com",
		Role:       models.RoleClient,
		IsActive:   false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := db.Collection("users").InsertOne(ctx, existing); err != nil {
		t.Fatalf("insert existing user: %v", err)
	}

	deps := DBDeps{CaseHubMongoDatabase: db}

	if err := ensureAdmin(ctx, deps, "existing@example.com", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin after promotion", user.Role)
	}
	if !user.IsActive {
		t.Error("promoted admin should be reactivated")
	}
}

func TestEnsureAdmin_AlreadyAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	existing := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   "Admin",
		FullNameCI: text.Fold("Admin"),
		Email:      "admin@example.com",
		Role:       models.RoleAdmin,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := db.Collection("users").InsertOne(ctx, existing); err != nil {
		t.Fatalf("insert existing admin: %v", err)
	}

	deps := DBDeps{CaseHubMongoDatabase: db}

	if err := ensureAdmin(ctx, deps, "admin@example.com", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if user.UpdatedAt.After(now.Add(time.Second)) {
		t.Error("no-op path should not rewrite the user")
	}

	// No duplicate account.
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": "admin@example.com"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("found %d admin accounts, want 1", n)
	}
}
