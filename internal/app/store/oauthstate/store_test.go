package oauthstate_test

import (
	"testing"
	"time"

	"github.com/glojourn/casehub/internal/app/store/oauthstate"
	"github.com/glojourn/casehub/internal/testutil"
)

func TestValidate_ConsumesState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "state-abc", "/applications", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	returnURL, valid, err := store.Validate(ctx, "state-abc")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid || returnURL != "/applications" {
		t.Errorf("valid=%v returnURL=%q", valid, returnURL)
	}

	// Single use: the same state must not validate twice.
	_, valid, err = store.Validate(ctx, "state-abc")
	if err != nil {
		t.Fatalf("second Validate: %v", err)
	}
	if valid {
		t.Error("state validated twice")
	}
}

func TestValidate_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "stale", "", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, valid, err := store.Validate(ctx, "stale")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if valid {
		t.Error("expired state validated")
	}
}

func TestValidate_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, valid, err := store.Validate(ctx, "never-saved")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if valid {
		t.Error("unknown state validated")
	}
}

func TestCleanupExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "old", "", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, "fresh", "", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	n, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("removed %d, want 1", n)
	}

	_, valid, err := store.Validate(ctx, "fresh")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid {
		t.Error("fresh state removed by cleanup")
	}
}
