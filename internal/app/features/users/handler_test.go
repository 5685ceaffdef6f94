package users_test

import (
	"net/http"
	"testing"

	"github.com/glojourn/casehub/internal/app/features/users"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/glojourn/casehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *users.Handler {
	return users.NewHandler(db, zap.NewNop())
}

func TestServeList_RoleFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Coordinator One", "c1@example.com", models.RoleCoordinator)
	fixtures.CreateUser(ctx, "Coordinator Two", "c2@example.com", models.RoleCoordinator)
	fixtures.CreateUser(ctx, "Client", "cl@example.com", models.RoleClient)

	req := testutil.NewAuthenticatedRequest("GET", "/api/users?role=coordinator", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Users      []models.User `json:"users"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.Users) != 2 || resp.Pagination.Total != 2 {
		t.Errorf("got %d users, total %d, want 2 coordinators", len(resp.Users), resp.Pagination.Total)
	}
	for _, u := range resp.Users {
		if u.Role != models.RoleCoordinator {
			t.Errorf("unexpected role %q in filtered list", u.Role)
		}
	}
}

func TestServeList_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)

	req := testutil.NewAuthenticatedRequest("GET", "/api/users?role=superuser", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleCreate_StaffAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.NewAuthenticatedJSONRequest(t, "POST", "/api/users", map[string]string{
		"full_name": "New Coordinator",
		"email":     "NewCoord@Example.com",
		"password":  "longenough",
		"role":      models.RoleCoordinator,
	}, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)

	var stored models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "newcoord@example.com"}).Decode(&stored); err != nil {
		t.Fatalf("load created user: %v", err)
	}
	if stored.Role != models.RoleCoordinator {
		t.Errorf("role = %q", stored.Role)
	}
	if !stored.IsActive {
		t.Error("new account should start active")
	}
	if stored.PasswordHash == "longenough" {
		t.Error("password stored in plain text")
	}
}

func TestHandleCreate_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)

	req := testutil.NewAuthenticatedJSONRequest(t, "POST", "/api/users", map[string]string{
		"full_name": "",
		"email":     "x@example.com",
		"password":  "short",
		"role":      "superuser",
	}, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "full_name")
	rec.AssertContains(t, "password")
	rec.AssertContains(t, "role")
}

func TestHandleCreate_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// The duplicate check relies on the unique index.
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("failed to create unique index: %v", err)
	}

	fixtures.CreateUser(ctx, "Existing", "taken@example.com", models.RoleClient)

	req := testutil.NewAuthenticatedJSONRequest(t, "POST", "/api/users", map[string]string{
		"full_name": "Another",
		"email":     "taken@example.com",
		"password":  "longenough",
		"role":      models.RoleClient,
	}, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)

	rec.AssertStatus(t, http.StatusConflict)
}

func TestHandleUpdate_AllowList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Old Name", "up@example.com", models.RoleCoordinator)

	req := testutil.NewAuthenticatedJSONRequest(t, "PUT", "/api/users/"+u.ID.Hex(), map[string]any{
		"full_name": "New Name",
		"phone":     "+1 555 0100",
		"role":      models.RoleAdmin,
		"email":     "hijack@example.com",
	}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", u.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var stored models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Decode(&stored); err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.FullName != "New Name" || stored.Phone != "+1 555 0100" {
		t.Errorf("patch not applied: %+v", stored)
	}
	if stored.Role != models.RoleCoordinator {
		t.Errorf("role changed to %q via update", stored.Role)
	}
	if stored.Email != "up@example.com" {
		t.Errorf("email changed to %q via update", stored.Email)
	}
}

func TestHandleToggleActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Toggled", "tg@example.com", models.RoleCoordinator)

	req := testutil.NewAuthenticatedRequest("POST", "/api/users/"+u.ID.Hex()+"/toggle-active", testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", u.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleToggleActive(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		IsActive bool `json:"is_active"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.IsActive {
		t.Error("expected toggle to deactivate an active account")
	}
}

func TestHandleToggleActive_SelfGuard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin", "ad@example.com", models.RoleAdmin)
	self := testutil.UserFor(admin.ID, admin.FullName, admin.Email, admin.Role)

	req := testutil.NewAuthenticatedRequest("POST", "/api/users/"+admin.ID.Hex()+"/toggle-active", self)
	req = testutil.WithChiURLParam(req, "id", admin.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleToggleActive(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)

	var stored models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": admin.ID}).Decode(&stored); err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if !stored.IsActive {
		t.Error("self-toggle should leave the account active")
	}
}

func TestHandleDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Doomed", "dd@example.com", models.RoleClient)

	req := testutil.NewAuthenticatedRequest("DELETE", "/api/users/"+u.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", u.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"_id": u.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Error("user still present after delete")
	}

	// Deleting again is a 404, not an error.
	rec2 := testutil.NewRecorder()
	h.HandleDelete(rec2, req)
	rec2.AssertStatus(t, http.StatusNotFound)
}
