package household

import (
	"context"
	"errors"

	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	"github.com/dalemusser/larder/internal/app/system/normalize"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.uber.org/zap"
)

// Retype changes the household type and prunes membership to match.
//
//	Single: owner only; selectedUserID must be empty.
//	Pair:   owner plus selectedUserID, which must already be a member.
//	Group:  membership unchanged.
//
// For Single and Pair the order is: remove pruned ids from users, clear each
// pruned user's householdId, purge every household activity, then write the
// type. A failure before the last step leaves the prior type in place.
// Returns the resulting member ids.
func (s *Service) Retype(ctx context.Context, actorID, householdID string, newType models.HouseholdType, selectedUserID string) ([]string, error) {
	const op = "retype"

	actorID, householdID, selectedUserID = normalize.ID(actorID), normalize.ID(householdID), normalize.ID(selectedUserID)
	if !newType.Valid() {
		return nil, invalid(op, householdID, "unknown household type "+string(newType))
	}

	h, err := s.loadHousehold(ctx, op, householdID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(op, h, actorID); err != nil {
		return nil, err
	}

	var keep []string
	switch newType {
	case models.HouseholdSingle:
		if selectedUserID != "" {
			return nil, invalid(op, h.ID, "a Single household cannot have a selected member")
		}
		keep = []string{h.OwnerID}
	case models.HouseholdPair:
		if selectedUserID == "" {
			return nil, invalid(op, h.ID, "a Pair household requires a selected member")
		}
		if selectedUserID == h.OwnerID {
			return nil, invalid(op, h.ID, "the selected member must not be the owner")
		}
		if !h.HasMember(selectedUserID) {
			return nil, invalid(op, h.ID, "the selected member must already belong to the household")
		}
		keep = []string{h.OwnerID, selectedUserID}
	case models.HouseholdGroup:
		p := s.begin(op, h.ID)
		if err := s.setType(ctx, p, h, newType); err != nil {
			return nil, err
		}
		return h.Users, nil
	}

	// Users linked to h but missing from h.Users are pruned too, so the
	// back-reference side matches the new membership.
	linked, err := s.users.ListByHousehold(ctx, h.ID)
	if err != nil {
		return nil, unavailable(op, h.ID, err)
	}
	keepSet := map[string]bool{}
	for _, id := range keep {
		keepSet[id] = true
	}
	var removed []string
	for _, id := range h.Users {
		if !keepSet[id] {
			removed = appendUnique(removed, id)
		}
	}
	for _, u := range linked {
		if !keepSet[u.ID] {
			removed = appendUnique(removed, u.ID)
		}
	}

	p := s.begin(op, h.ID)

	if listed := intersect(removed, h.Users); len(listed) > 0 {
		if err := s.households.RemoveMembers(ctx, h.ID, listed...); err != nil {
			if errors.Is(err, householdstore.ErrNotFound) {
				return nil, precondition(op, KindNotFound, h.ID, "household was deleted")
			}
			return nil, p.fail(PhasePruneMembers, err)
		}
		p.done++
	}

	for _, id := range removed {
		if err := s.users.ClearHousehold(ctx, id, h.ID); err != nil {
			return nil, p.fail(PhaseUnlinkUser, err)
		}
		p.done++
	}

	purged, err := s.purgeActivities(ctx, p, h.ID)
	if err != nil {
		return nil, p.fail(PhasePurgeActivities, err)
	}

	if err := s.setType(ctx, p, h, newType); err != nil {
		return nil, err
	}

	s.log.Info("household retyped",
		zap.String("household_id", h.ID),
		zap.String("type", string(newType)),
		zap.Strings("removed", removed),
		zap.Int("activities_purged", purged))
	return keep, nil
}

func (s *Service) setType(ctx context.Context, p *progress, h models.Household, t models.HouseholdType) error {
	if h.Type == t {
		return nil
	}
	if err := s.households.UpdateField(ctx, h.ID, householdstore.FieldType, string(t)); err != nil {
		if errors.Is(err, householdstore.ErrNotFound) && p.done == 0 {
			return precondition(p.op, KindNotFound, h.ID, "household was deleted")
		}
		return p.fail(PhaseSetType, err)
	}
	p.done++
	return nil
}

// purgeActivities hard-deletes every activity scoped to householdID.
func (s *Service) purgeActivities(ctx context.Context, p *progress, householdID string) (int, error) {
	acts, err := s.activities.ListByHousehold(ctx, householdID)
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(acts))
	for i, a := range acts {
		ids[i] = a.ID
	}
	if err := s.sweep(ctx, p, ids, s.activities.DeleteMany); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func intersect(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, x := range b {
		in[x] = true
	}
	var out []string
	for _, x := range a {
		if in[x] {
			out = append(out, x)
		}
	}
	return out
}
