package household_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/domain/models"
	"github.com/stretchr/testify/require"
)

func seq(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// newTestService returns a Service over w with household ids h1, h2, ...
// and invite tokens tok1, tok2, ...
func newTestService(w *world, opts ...household.Option) *household.Service {
	opts = append([]household.Option{household.WithIDs(seq("h"), seq("tok"))}, opts...)
	return w.service(opts...)
}

// mustCreate creates a household owned by owner and joins every member.
func mustCreate(t *testing.T, svc *household.Service, owner string, typ models.HouseholdType, members ...string) models.Household {
	t.Helper()
	ctx := context.Background()
	h, err := svc.Create(ctx, owner, "Home", typ)
	require.NoError(t, err)
	for _, m := range members {
		h, err = svc.Join(ctx, m, h.ID)
		require.NoError(t, err)
	}
	return h
}

func requireKind(t *testing.T, err error, kind household.Kind) *household.Error {
	t.Helper()
	require.Error(t, err)
	var e *household.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, kind, e.Kind, "error: %v", err)
	return e
}
