package fooditemstore_test

import (
	"testing"

	fooditemstore "github.com/dalemusser/larder/internal/app/store/fooditems"
	"github.com/dalemusser/larder/internal/testutil"
)

func TestStore_SetHousehold(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fooditemstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateFoodItem(ctx, "u1", "", "")
	b := fixtures.CreateFoodItem(ctx, "u1", "", "img-b")
	fixtures.CreateFoodItem(ctx, "u2", "", "")

	if err := store.SetHousehold(ctx, []string{a.ID, b.ID}, "h1"); err != nil {
		t.Fatalf("SetHousehold failed: %v", err)
	}

	inH1, err := store.ListByHousehold(ctx, "h1")
	if err != nil {
		t.Fatalf("ListByHousehold failed: %v", err)
	}
	if len(inH1) != 2 {
		t.Fatalf("expected 2 items in h1, got %d", len(inH1))
	}

	if err := store.SetHousehold(ctx, []string{a.ID}, ""); err != nil {
		t.Fatalf("orphan SetHousehold failed: %v", err)
	}
	inH1, _ = store.ListByHousehold(ctx, "h1")
	if len(inH1) != 1 || inH1[0].ID != b.ID {
		t.Errorf("expected only %s in h1, got %v", b.ID, inH1)
	}
	if inH1[0].ImageID != "img-b" {
		t.Errorf("expected imageId to be projected, got %q", inH1[0].ImageID)
	}

	mine, err := store.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 items for u1, got %d", len(mine))
	}
}

func TestStore_DeleteMany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fooditemstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateFoodItem(ctx, "u1", "h1", "")
	b := fixtures.CreateFoodItem(ctx, "u1", "h1", "")

	if err := store.DeleteMany(ctx, []string{a.ID, b.ID, "missing"}); err != nil {
		t.Fatalf("DeleteMany failed: %v", err)
	}
	left, _ := store.ListByHousehold(ctx, "h1")
	if len(left) != 0 {
		t.Errorf("expected no items left, got %d", len(left))
	}
}
