package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/larder/internal/app/store/audit"
	"github.com/dalemusser/larder/internal/testutil"
)

func TestStore_Log_AutoGeneratesIDAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	err := store.Log(ctx, audit.Event{
		Category:    audit.CategoryHousehold,
		EventType:   audit.EventHouseholdCreated,
		ActorID:     "u1",
		HouseholdID: "h1",
		Success:     true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	after := time.Now().Add(time.Second)

	events, err := store.GetByHousehold(ctx, "h1", 10)
	if err != nil {
		t.Fatalf("GetByHousehold failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].Timestamp.Before(before) || events[0].Timestamp.After(after) {
		t.Errorf("expected timestamp near now, got %v", events[0].Timestamp)
	}
}

func TestStore_QueryFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	events := []audit.Event{
		{Category: audit.CategoryHousehold, EventType: audit.EventHouseholdCreated, ActorID: "u1", HouseholdID: "h1", Success: true},
		{Category: audit.CategoryHousehold, EventType: audit.EventHouseholdJoined, ActorID: "u2", HouseholdID: "h1", Success: true},
		{Category: audit.CategoryHousehold, EventType: audit.EventHouseholdDeleted, ActorID: "u1", HouseholdID: "h1",
			FailureKind: "PartialFailure", FailureReason: "deleteFoodItems"},
		{Category: audit.CategoryAdmin, EventType: audit.EventHouseholdRepaired, HouseholdID: "h2", Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	got, err := store.Query(ctx, audit.QueryFilter{ActorID: "u1"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 events for u1, got %d", len(got))
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAdmin})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 admin event, got %d", n)
	}

	failures, err := store.GetFailures(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("GetFailures failed: %v", err)
	}
	if len(failures) != 1 || failures[0].FailureKind != "PartialFailure" {
		t.Errorf("expected the one partial failure, got %+v", failures)
	}
}

func TestStore_Query_Limit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, audit.Event{Category: audit.CategoryHousehold, EventType: audit.EventHouseholdJoined, HouseholdID: "h1", Success: true}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	events, err := store.GetByHousehold(ctx, "h1", 3)
	if err != nil {
		t.Fatalf("GetByHousehold failed: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("expected 3 events with limit, got %d", len(events))
	}
}
