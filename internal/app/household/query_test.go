package household_test

import (
	"context"
	"testing"

	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHouseholdForUser(t *testing.T) {
	w := newWorld()
	w.addUser("u1", "")
	w.addUser("u2", "")
	svc := newTestService(w)
	h := mustCreate(t, svc, "u1", models.HouseholdGroup)
	ctx := context.Background()

	got, err := svc.GetHouseholdForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)

	_, err = svc.GetHouseholdForUser(ctx, "u2")
	assert.ErrorIs(t, err, household.ErrNotFound)

	_, err = svc.GetHouseholdForUser(ctx, " ")
	assert.ErrorIs(t, err, household.ErrInvalidArgument)

	w.failOn("households.GetByMember", 1)
	_, err = svc.GetHouseholdForUser(ctx, "u1")
	assert.ErrorIs(t, err, household.ErrStoreUnavailable)
}

func TestGet(t *testing.T) {
	w := newWorld()
	w.addUser("u1", "")
	svc := newTestService(w)
	h := mustCreate(t, svc, "u1", models.HouseholdGroup)

	got, err := svc.Get(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Users, got.Users)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, household.ErrNotFound)
}

func TestRename(t *testing.T) {
	w := newWorld()
	w.addUser("u1", "")
	w.addUser("u2", "")
	svc := newTestService(w)
	h := mustCreate(t, svc, "u1", models.HouseholdGroup, "u2")
	ctx := context.Background()

	_, err := svc.Rename(ctx, "u2", h.ID, "Theirs")
	assert.ErrorIs(t, err, household.ErrInvalidArgument)

	_, err = svc.Rename(ctx, "u1", h.ID, "<script></script>")
	assert.ErrorIs(t, err, household.ErrInvalidArgument)

	got, err := svc.Rename(ctx, "u1", h.ID, " The   Flat ")
	require.NoError(t, err)
	assert.Equal(t, "The Flat", got.Name)
	assert.Equal(t, "The Flat", w.household(t, h.ID).Name)
}
