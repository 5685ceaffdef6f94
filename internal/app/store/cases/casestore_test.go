package casestore_test

import (
	"testing"

	casestore "github.com/glojourn/casehub/internal/app/store/cases"
	"github.com/glojourn/casehub/internal/app/system/paging"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/glojourn/casehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Case{
		ClientID: primitive.NewObjectID(),
		VisaType: models.VisaTypeStudent,
		ApplicationDetails: models.ApplicationDetails{
			DestinationCountry: "Germany",
			PurposeOfVisit:     "Study",
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Status != models.CaseStatusDraft {
		t.Errorf("status = %q, want draft", created.Status)
	}
	if created.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want medium", created.Priority)
	}
	if created.Notes == nil {
		t.Error("expected Notes to be initialized")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Create_SecondCaseRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	clientID := primitive.NewObjectID()
	original := fixtures.CreateCase(ctx, clientID)

	_, err := store.Create(ctx, models.Case{
		ClientID: clientID,
		VisaType: models.VisaTypeTourist,
	})
	if err != casestore.ErrClientHasCase {
		t.Fatalf("expected ErrClientHasCase, got %v", err)
	}

	// The original must be untouched.
	got, err := store.GetByClient(ctx, clientID)
	if err != nil {
		t.Fatalf("GetByClient failed: %v", err)
	}
	if got.ID != original.ID {
		t.Error("original case was replaced")
	}
	if got.VisaType != original.VisaType {
		t.Error("original case was modified")
	}
}

func TestStore_Update_AllowListedFieldsOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	clientID := primitive.NewObjectID()
	coordID := primitive.NewObjectID()
	c := fixtures.CreateCase(ctx, clientID)
	fixtures.AssignCoordinator(ctx, c.ID, coordID)

	priority := models.PriorityUrgent
	status := models.CaseStatusSubmitted
	updated, err := store.Update(ctx, c.ID, casestore.Update{
		Priority: &priority,
		Status:   &status,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Priority != models.PriorityUrgent {
		t.Errorf("priority = %q, want urgent", updated.Priority)
	}
	if updated.Status != models.CaseStatusSubmitted {
		t.Errorf("status = %q, want submitted", updated.Status)
	}
	if updated.ClientID != clientID {
		t.Error("client_id must never change on update")
	}
	if updated.AssignedCoordinatorID == nil || *updated.AssignedCoordinatorID != coordID {
		t.Error("assignment must survive an update")
	}
	if !updated.UpdatedAt.After(c.UpdatedAt) {
		t.Error("expected UpdatedAt to advance")
	}
}

func TestStore_AppendNote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())
	author := primitive.NewObjectID()

	updated, err := store.AppendNote(ctx, c.ID, models.CaseNote{
		AuthorID:  author,
		Content:   "Passport received",
		CreatedAt: c.CreatedAt,
	})
	if err != nil {
		t.Fatalf("AppendNote failed: %v", err)
	}

	if len(updated.Notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(updated.Notes))
	}
	if updated.Notes[0].Content != "Passport received" {
		t.Errorf("note content = %q, want it stored verbatim", updated.Notes[0].Content)
	}
	if updated.Notes[0].AuthorID != author {
		t.Error("note author mismatch")
	}
}

func TestStore_List_PagingAndSort(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 25; i++ {
		fixtures.CreateCase(ctx, primitive.NewObjectID())
	}

	cases, total, err := store.List(ctx, bson.M{}, paging.Params{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(cases) != 10 {
		t.Errorf("page size = %d, want 10", len(cases))
	}

	meta := paging.Params{Page: 2, Limit: 10}.MetaFor(total)
	if meta.Pages != 3 {
		t.Errorf("pages = %d, want 3", meta.Pages)
	}

	// Newest first across the page boundary.
	for i := 1; i < len(cases); i++ {
		if cases[i].CreatedAt.After(cases[i-1].CreatedAt) {
			t.Fatal("cases not sorted newest first")
		}
	}
}

func TestStore_List_StatusFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateCaseWithStatus(ctx, primitive.NewObjectID(), models.CaseStatusApproved)
	fixtures.CreateCaseWithStatus(ctx, primitive.NewObjectID(), models.CaseStatusApproved)
	fixtures.CreateCase(ctx, primitive.NewObjectID())

	_, total, err := store.List(ctx, bson.M{"status": models.CaseStatusApproved}, paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
}

func TestStore_AssignCoordinator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())
	coordID := primitive.NewObjectID()

	updated, err := store.AssignCoordinator(ctx, c.ID, coordID)
	if err != nil {
		t.Fatalf("AssignCoordinator failed: %v", err)
	}
	if updated.AssignedCoordinatorID == nil || *updated.AssignedCoordinatorID != coordID {
		t.Error("coordinator not assigned")
	}

	if _, err := store.AssignCoordinator(ctx, primitive.NewObjectID(), coordID); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments for missing case, got %v", err)
	}
}

func TestStore_ClearCoordinator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())
	fixtures.AssignCoordinator(ctx, c.ID, primitive.NewObjectID())

	cleared, err := store.ClearCoordinator(ctx, c.ID)
	if err != nil {
		t.Fatalf("ClearCoordinator failed: %v", err)
	}
	if cleared.AssignedCoordinatorID != nil {
		t.Error("coordinator still set after clear")
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())

	n, err := store.Delete(ctx, c.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	n, err = store.Delete(ctx, c.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted = %d, want 0", n)
	}
}

func TestStore_GetStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateCaseWithStatus(ctx, primitive.NewObjectID(), models.CaseStatusApproved)
	fixtures.CreateCase(ctx, primitive.NewObjectID())
	fixtures.AssignCoordinator(ctx, a.ID, primitive.NewObjectID())

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	if stats.Unassigned != 1 {
		t.Errorf("Unassigned = %d, want 1", stats.Unassigned)
	}

	byStatus := map[string]int64{}
	for _, sc := range stats.ByStatus {
		byStatus[sc.Status] = sc.Count
	}
	if byStatus[models.CaseStatusApproved] != 1 || byStatus[models.CaseStatusDraft] != 1 {
		t.Errorf("unexpected status buckets: %v", byStatus)
	}
}
