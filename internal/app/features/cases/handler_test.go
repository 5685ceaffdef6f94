package cases_test

import (
	"net/http"
	"testing"

	"github.com/glojourn/casehub/internal/app/features/cases"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/glojourn/casehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestServeView_ClientCannotSeeForeignCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	foreign := fixtures.CreateCase(ctx, primitive.NewObjectID())

	req := testutil.NewAuthenticatedRequest("GET", "/api/cases/"+foreign.ID.Hex(), testutil.ClientUser())
	req = testutil.WithChiURLParam(req, "caseID", foreign.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeView(rec, req)

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeView_AdminSeesAny(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())

	req := testutil.NewAuthenticatedRequest("GET", "/api/cases/"+c.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeView(rec, req)

	rec.AssertStatus(t, http.StatusOK)
}

func TestServeView_BadID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/api/cases/not-an-id", testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "caseID", "not-an-id")
	rec := testutil.NewRecorder()
	h.ServeView(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleUpdate_CoordinatorOnAssignedCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coord := fixtures.CreateUser(ctx, "Coord", "coord@example.com", models.RoleCoordinator)
	c := fixtures.CreateCase(ctx, primitive.NewObjectID())
	fixtures.AssignCoordinator(ctx, c.ID, coord.ID)

	user := testutil.UserFor(coord.ID, coord.FullName, coord.Email, coord.Role)
	req := testutil.NewAuthenticatedJSONRequest(t, "PUT", "/api/cases/"+c.ID.Hex(), map[string]any{
		"status": "under_review",
	}, user)
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var stored models.Case
	if err := db.Collection("cases").FindOne(ctx, bson.M{"_id": c.ID}).Decode(&stored); err != nil {
		t.Fatalf("load stored case: %v", err)
	}
	if stored.Status != models.CaseStatusUnderReview {
		t.Errorf("status = %q, want under_review", stored.Status)
	}
}

func TestHandleUpdate_CoordinatorForeignCaseForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())
	fixtures.AssignCoordinator(ctx, c.ID, primitive.NewObjectID())

	req := testutil.NewAuthenticatedJSONRequest(t, "PUT", "/api/cases/"+c.ID.Hex(), map[string]any{
		"status": "approved",
	}, testutil.CoordinatorUser())
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, req)

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleUpdate_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())

	req := testutil.NewAuthenticatedJSONRequest(t, "PUT", "/api/cases/"+c.ID.Hex(), map[string]any{
		"status": "archived",
	}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleUpdate_StatusChangeFiresAutomations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coord := fixtures.CreateUser(ctx, "Coord", "coord@example.com", models.RoleCoordinator)
	c := fixtures.CreateCase(ctx, primitive.NewObjectID())

	a := fixtures.CreateAutomation(ctx,
		models.Trigger{
			Type:       models.TriggerStatusChange,
			Conditions: models.TriggerConditions{Status: models.CaseStatusSubmitted},
		},
		[]models.Action{{Type: models.ActionAssignCoordinator}})

	req := testutil.NewAuthenticatedJSONRequest(t, "PUT", "/api/cases/"+c.ID.Hex(), map[string]any{
		"status": "submitted",
	}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var stored models.Case
	if err := db.Collection("cases").FindOne(ctx, bson.M{"_id": c.ID}).Decode(&stored); err != nil {
		t.Fatalf("load stored case: %v", err)
	}
	if stored.AssignedCoordinatorID == nil || *stored.AssignedCoordinatorID != coord.ID {
		t.Error("status change did not fire the assignment automation")
	}

	after, err := h.Executor.Automations.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("reload automation: %v", err)
	}
	if after.ExecutionCount != 1 {
		t.Errorf("execution_count = %d, want 1", after.ExecutionCount)
	}
}

func TestHandleUpdate_UnchangedStatusDoesNotFire(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Coord", "coord@example.com", models.RoleCoordinator)
	c := fixtures.CreateCaseWithStatus(ctx, primitive.NewObjectID(), models.CaseStatusSubmitted)

	fixtures.CreateAutomation(ctx,
		models.Trigger{
			Type:       models.TriggerStatusChange,
			Conditions: models.TriggerConditions{Status: models.CaseStatusSubmitted},
		},
		[]models.Action{{Type: models.ActionAssignCoordinator}})

	// Status stays submitted; priority changes.
	req := testutil.NewAuthenticatedJSONRequest(t, "PUT", "/api/cases/"+c.ID.Hex(), map[string]any{
		"status":   "submitted",
		"priority": "high",
	}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var stored models.Case
	if err := db.Collection("cases").FindOne(ctx, bson.M{"_id": c.ID}).Decode(&stored); err != nil {
		t.Fatalf("load stored case: %v", err)
	}
	if stored.AssignedCoordinatorID != nil {
		t.Error("automation fired without a status change")
	}
}

func TestHandleDelete_AdminOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())

	// Manager is staff but still may not delete.
	req := testutil.NewAuthenticatedRequest("DELETE", "/api/cases/"+c.ID.Hex(), testutil.ManagerUser())
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.NewAuthenticatedRequest("DELETE", "/api/cases/"+c.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleDelete(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	n, err := db.Collection("cases").CountDocuments(ctx, bson.M{"_id": c.ID})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Error("case still present after delete")
	}
}

func TestHandleAddNote_EmptyRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())

	for _, content := range []string{"", "   ", "\n\t"} {
		req := testutil.NewAuthenticatedJSONRequest(t, "POST", "/api/cases/"+c.ID.Hex()+"/notes",
			map[string]string{"content": content}, testutil.AdminUser())
		req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleAddNote(rec, req)
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestHandleAddNote_StoredVerbatim(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin", "ad@example.com", models.RoleAdmin)
	c := fixtures.CreateCase(ctx, primitive.NewObjectID())

	user := testutil.UserFor(admin.ID, admin.FullName, admin.Email, admin.Role)
	req := testutil.NewAuthenticatedJSONRequest(t, "POST", "/api/cases/"+c.ID.Hex()+"/notes",
		map[string]string{"content": "Passport received"}, user)
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleAddNote(rec, req)

	rec.AssertStatus(t, http.StatusCreated)

	var stored models.Case
	if err := db.Collection("cases").FindOne(ctx, bson.M{"_id": c.ID}).Decode(&stored); err != nil {
		t.Fatalf("load stored case: %v", err)
	}
	if len(stored.Notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(stored.Notes))
	}
	if stored.Notes[0].Content != "Passport received" {
		t.Errorf("content = %q, want it stored verbatim", stored.Notes[0].Content)
	}
	if stored.Notes[0].AuthorID != admin.ID {
		t.Error("note author not recorded")
	}
	if stored.Notes[0].CreatedAt.IsZero() {
		t.Error("note timestamp not recorded")
	}
}

func TestHandleAddNote_MarkupStripped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := cases.NewHandler(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())

	req := testutil.NewAuthenticatedJSONRequest(t, "POST", "/api/cases/"+c.ID.Hex()+"/notes",
		map[string]string{"content": `<script>alert("x")</script>called the client`}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleAddNote(rec, req)

	rec.AssertStatus(t, http.StatusCreated)

	var stored models.Case
	if err := db.Collection("cases").FindOne(ctx, bson.M{"_id": c.ID}).Decode(&stored); err != nil {
		t.Fatalf("load stored case: %v", err)
	}
	if stored.Notes[0].Content != "called the client" {
		t.Errorf("content = %q, want markup stripped", stored.Notes[0].Content)
	}
}
