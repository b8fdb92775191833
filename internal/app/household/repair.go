package household

import (
	"context"
	"errors"

	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	userstore "github.com/dalemusser/larder/internal/app/store/users"
	"github.com/dalemusser/larder/internal/app/system/normalize"
	"go.uber.org/zap"
)

// RepairResult counts the fixes a Repair pass applied.
type RepairResult struct {
	HouseholdID string   `json:"householdId"`
	Linked      []string `json:"linked"`
	Pruned      []string `json:"pruned"`
	Unlinked    []string `json:"unlinked"`
}

// Changed reports whether Repair wrote anything.
func (r RepairResult) Changed() bool {
	return len(r.Linked)+len(r.Pruned)+len(r.Unlinked) > 0
}

// Repair restores the bidirectional users/householdId link for one
// household.
//
// A listed user with no household is linked; the write only lands while
// the user still has none, so a concurrent join is never overwritten. A
// listed user that no longer exists or points at another household is
// pruned from users (the owner is never pruned). A user pointing at the
// household without being listed is unlinked. Safe to run at any time.
func (s *Service) Repair(ctx context.Context, householdID string) (RepairResult, error) {
	const op = "repair"

	householdID = normalize.ID(householdID)
	h, err := s.loadHousehold(ctx, op, householdID)
	if err != nil {
		return RepairResult{}, err
	}
	res := RepairResult{HouseholdID: h.ID}
	p := s.begin(op, h.ID)

	for _, id := range h.Users {
		u, err := s.users.Get(ctx, id)
		switch {
		case errors.Is(err, userstore.ErrNotFound):
			if id == h.OwnerID {
				s.log.Warn("household owner has no user document",
					zap.String("household_id", h.ID),
					zap.String("owner_id", id))
				continue
			}
			if err := s.households.RemoveMembers(ctx, h.ID, id); err != nil {
				return res, p.fail(PhaseRepair, err)
			}
			p.done++
			res.Pruned = append(res.Pruned, id)
		case err != nil:
			return res, p.fail(PhaseRepair, err)
		case u.HouseholdID == h.ID:
		case u.HouseholdID != "":
			if id == h.OwnerID {
				s.log.Warn("household owner is linked to another household",
					zap.String("household_id", h.ID),
					zap.String("owner_id", id),
					zap.String("linked_to", u.HouseholdID))
				continue
			}
			if err := s.households.RemoveMembers(ctx, h.ID, id); err != nil {
				return res, p.fail(PhaseRepair, err)
			}
			p.done++
			res.Pruned = append(res.Pruned, id)
		default:
			linked, err := s.users.LinkHousehold(ctx, id, h.ID)
			switch {
			case errors.Is(err, userstore.ErrNotFound):
				continue
			case err != nil:
				return res, p.fail(PhaseRepair, err)
			case !linked:
				// Joined another household since the read; the next pass prunes.
				s.log.Info("user linked elsewhere during repair",
					zap.String("household_id", h.ID),
					zap.String("user_id", id))
				continue
			}
			p.done++
			res.Linked = append(res.Linked, id)
		}
	}

	linked, err := s.users.ListByHousehold(ctx, h.ID)
	if err != nil {
		return res, p.fail(PhaseRepair, err)
	}
	for _, u := range linked {
		if h.HasMember(u.ID) {
			continue
		}
		if err := s.users.ClearHousehold(ctx, u.ID, h.ID); err != nil {
			return res, p.fail(PhaseRepair, err)
		}
		p.done++
		res.Unlinked = append(res.Unlinked, u.ID)
	}

	if res.Changed() {
		s.log.Info("household repaired",
			zap.String("household_id", h.ID),
			zap.Strings("linked", res.Linked),
			zap.Strings("pruned", res.Pruned),
			zap.Strings("unlinked", res.Unlinked))
	}
	return res, nil
}

// Resweep re-runs the food-item re-parenting sweep for userID against the
// household that currently lists the user (or none). It is the targeted
// retry for a Create that failed at reparentFoodItems.
func (s *Service) Resweep(ctx context.Context, userID string) (int, error) {
	const op = "resweep"

	userID = normalize.ID(userID)
	if userID == "" {
		return 0, invalid(op, "", "user id is required")
	}
	if _, err := s.loadUser(ctx, op, "", userID); err != nil {
		return 0, err
	}

	target := ""
	h, err := s.households.GetByMember(ctx, userID)
	switch {
	case err == nil:
		target = h.ID
	case errors.Is(err, householdstore.ErrNotFound):
	default:
		return 0, unavailable(op, "", err)
	}

	p := s.begin(op, target)
	moved, err := s.reparent(ctx, p, userID, target)
	if err != nil {
		return moved, p.fail(PhaseReparentFoodItems, err)
	}
	s.log.Info("food items reswept",
		zap.String("user_id", userID),
		zap.String("household_id", target),
		zap.Int("moved", moved))
	return moved, nil
}
