package household

import (
	"context"
	"errors"

	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	"github.com/dalemusser/larder/internal/app/system/normalize"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.uber.org/zap"
)

// Join adds actorID to the household.
//
// The household's users array-union is written first, then the user's
// back-reference. If the second write fails the membership dangles and the
// call returns KindPartialFailure; calling Join again with the same
// arguments completes it.
func (s *Service) Join(ctx context.Context, actorID, householdID string) (models.Household, error) {
	const op = "join"

	actorID, householdID = normalize.ID(actorID), normalize.ID(householdID)
	if actorID == "" || householdID == "" {
		return models.Household{}, invalid(op, householdID, "actor and household ids are required")
	}

	h, err := s.loadHousehold(ctx, op, householdID)
	if err != nil {
		return models.Household{}, err
	}
	u, err := s.loadUser(ctx, op, h.ID, actorID)
	if err != nil {
		return models.Household{}, err
	}
	if err := s.ensureFree(ctx, op, u, h.ID); err != nil {
		return models.Household{}, err
	}

	p := s.begin(op, h.ID)
	h, err = s.link(ctx, p, h, actorID)
	if err != nil {
		return models.Household{}, err
	}
	s.log.Info("household joined",
		zap.String("household_id", h.ID),
		zap.String("user_id", actorID))
	return h, nil
}

// AddMember is Join performed by the owner on behalf of newUserID.
func (s *Service) AddMember(ctx context.Context, ownerID, newUserID string) (models.Household, error) {
	const op = "addMember"

	ownerID, newUserID = normalize.ID(ownerID), normalize.ID(newUserID)
	if ownerID == "" || newUserID == "" {
		return models.Household{}, invalid(op, "", "owner and user ids are required")
	}

	h, err := s.households.GetByMember(ctx, ownerID)
	if err != nil {
		if errors.Is(err, householdstore.ErrNotFound) {
			return models.Household{}, precondition(op, KindNotFound, "", "actor has no household")
		}
		return models.Household{}, unavailable(op, "", err)
	}
	if err := requireOwner(op, h, ownerID); err != nil {
		return models.Household{}, err
	}

	u, err := s.loadUser(ctx, op, h.ID, newUserID)
	if err != nil {
		return models.Household{}, err
	}
	if err := s.ensureFree(ctx, op, u, h.ID); err != nil {
		return models.Household{}, err
	}

	p := s.begin(op, h.ID)
	h, err = s.link(ctx, p, h, newUserID)
	if err != nil {
		return models.Household{}, err
	}
	s.log.Info("household member added",
		zap.String("household_id", h.ID),
		zap.String("owner_id", ownerID),
		zap.String("user_id", newUserID))
	return h, nil
}

// link writes both halves of a membership: users array-union, then the
// user's back-reference.
func (s *Service) link(ctx context.Context, p *progress, h models.Household, userID string) (models.Household, error) {
	if err := s.households.AddMember(ctx, h.ID, userID); err != nil {
		if errors.Is(err, householdstore.ErrNotFound) && p.done == 0 {
			return models.Household{}, precondition(p.op, KindNotFound, h.ID, "household was deleted")
		}
		return models.Household{}, p.fail(PhaseAddMember, err)
	}
	p.done++

	if err := s.users.SetHousehold(ctx, userID, h.ID); err != nil {
		return models.Household{}, p.fail(PhaseLinkUser, err)
	}
	p.done++

	h.Users = appendUnique(h.Users, userID)
	return h, nil
}

// Leave removes actorID from the household: users array-remove first,
// then the back-reference is cleared.
//
// The owner cannot leave while other members remain (transfer ownership or
// retype to Single first). An owner who is the sole member stays put: the
// household is never deleted implicitly, Delete is required. A user who is
// neither listed nor linked gets KindInvalidArgument; one still linked after
// an interrupted leave is unlinked. Food items are not swept on leave.
func (s *Service) Leave(ctx context.Context, actorID, householdID string) (models.Household, error) {
	const op = "leave"

	actorID, householdID = normalize.ID(actorID), normalize.ID(householdID)
	if actorID == "" || householdID == "" {
		return models.Household{}, invalid(op, householdID, "actor and household ids are required")
	}

	h, err := s.loadHousehold(ctx, op, householdID)
	if err != nil {
		return models.Household{}, err
	}

	if actorID == h.OwnerID {
		if len(h.Users) > 1 {
			return models.Household{}, precondition(op, KindOwnerCannotLeave, h.ID, "owner must transfer ownership or retype to Single before leaving")
		}
		s.log.Info("owner is the sole member; household kept until deleted",
			zap.String("household_id", h.ID),
			zap.String("owner_id", actorID))
		return h, nil
	}

	if !h.HasMember(actorID) {
		u, err := s.loadUser(ctx, op, h.ID, actorID)
		if err != nil {
			return models.Household{}, err
		}
		if u.HouseholdID != h.ID {
			return models.Household{}, invalid(op, h.ID, "user is not a member of this household")
		}
	}

	p := s.begin(op, h.ID)
	if h.HasMember(actorID) {
		if err := s.households.RemoveMembers(ctx, h.ID, actorID); err != nil {
			if errors.Is(err, householdstore.ErrNotFound) {
				return models.Household{}, precondition(op, KindNotFound, h.ID, "household was deleted")
			}
			return models.Household{}, p.fail(PhaseRemoveMember, err)
		}
		p.done++
	}
	if err := s.users.ClearHousehold(ctx, actorID, h.ID); err != nil {
		return models.Household{}, p.fail(PhaseUnlinkUser, err)
	}

	h.Users = without(h.Users, actorID)
	s.log.Info("household left",
		zap.String("household_id", h.ID),
		zap.String("user_id", actorID))
	return h, nil
}

// TransferOwnership makes newOwnerID, an existing member, the owner.
func (s *Service) TransferOwnership(ctx context.Context, ownerID, householdID, newOwnerID string) (models.Household, error) {
	const op = "transferOwnership"

	ownerID, householdID, newOwnerID = normalize.ID(ownerID), normalize.ID(householdID), normalize.ID(newOwnerID)
	h, err := s.loadHousehold(ctx, op, householdID)
	if err != nil {
		return models.Household{}, err
	}
	if err := requireOwner(op, h, ownerID); err != nil {
		return models.Household{}, err
	}
	if newOwnerID == "" || !h.HasMember(newOwnerID) {
		return models.Household{}, invalid(op, h.ID, "new owner must be a current member")
	}
	if newOwnerID == h.OwnerID {
		return h, nil
	}

	if err := s.households.UpdateField(ctx, h.ID, householdstore.FieldOwnerID, newOwnerID); err != nil {
		if errors.Is(err, householdstore.ErrNotFound) {
			return models.Household{}, precondition(op, KindNotFound, h.ID, "household was deleted")
		}
		return models.Household{}, unavailable(op, h.ID, err)
	}
	h.OwnerID = newOwnerID
	s.log.Info("household ownership transferred",
		zap.String("household_id", h.ID),
		zap.String("from", ownerID),
		zap.String("to", newOwnerID))
	return h, nil
}
