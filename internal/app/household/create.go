package household

import (
	"context"
	"errors"

	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	"github.com/dalemusser/larder/internal/app/system/normalize"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.uber.org/zap"
)

// Create makes actorID the owner and sole member of a new household and
// re-parents the actor's food items into it.
//
// Write order: household document, the actor's back-reference, then the
// food-item sweep. A failure after the household document exists returns
// KindPartialFailure carrying the new household id. Re-issuing the same
// request picks up the half-built household and finishes the link and the
// sweep; Repair and Resweep do the same work out of band.
func (s *Service) Create(ctx context.Context, actorID, name string, typ models.HouseholdType) (models.Household, error) {
	const op = "create"

	actorID = normalize.ID(actorID)
	name = normalize.HouseholdName(name)
	if actorID == "" {
		return models.Household{}, invalid(op, "", "actor id is required")
	}
	if name == "" {
		return models.Household{}, invalid(op, "", "name is required")
	}
	if !typ.Valid() {
		return models.Household{}, invalid(op, "", "unknown household type "+string(typ))
	}

	u, err := s.loadUser(ctx, op, "", actorID)
	if err != nil {
		return models.Household{}, err
	}
	h, resumed, err := s.pendingCreate(ctx, op, u, name, typ)
	if err != nil {
		return models.Household{}, err
	}
	if !resumed {
		if err := s.ensureFree(ctx, op, u, ""); err != nil {
			return models.Household{}, err
		}
		h, err = s.households.Create(ctx, models.Household{
			ID:        s.newID(),
			Name:      name,
			Type:      typ,
			OwnerID:   actorID,
			Users:     []string{actorID},
			Invites:   []string{},
			CreatedAt: s.now().UnixMilli(),
		})
		if err != nil {
			if errors.Is(err, householdstore.ErrAlreadyExists) {
				return models.Household{}, precondition(op, KindAlreadyExists, "", "household id or owner already taken")
			}
			return models.Household{}, unavailable(op, "", err)
		}
	}

	p := s.begin(op, h.ID)
	p.done++

	if err := s.users.SetHousehold(ctx, actorID, h.ID); err != nil {
		return models.Household{}, p.fail(PhaseLinkOwner, err)
	}
	p.done++

	moved, err := s.reparent(ctx, p, actorID, h.ID)
	if err != nil {
		return models.Household{}, p.fail(PhaseReparentFoodItems, err)
	}

	msg := "household created"
	if resumed {
		msg = "household create resumed"
	}
	s.log.Info(msg,
		zap.String("household_id", h.ID),
		zap.String("actor_id", actorID),
		zap.String("type", string(h.Type)),
		zap.Int("food_items", moved))
	return h, nil
}

// pendingCreate finds a household an earlier Create for the same request
// left half-built: owned by u, listing only u, same name and type, and
// either the owner link or part of the food-item sweep still missing.
func (s *Service) pendingCreate(ctx context.Context, op string, u models.User, name string, typ models.HouseholdType) (models.Household, bool, error) {
	h, err := s.households.GetByMember(ctx, u.ID)
	switch {
	case errors.Is(err, householdstore.ErrNotFound):
		return models.Household{}, false, nil
	case err != nil:
		return models.Household{}, false, unavailable(op, "", err)
	}
	if h.OwnerID != u.ID || len(h.Users) != 1 || h.Name != name || h.Type != typ {
		return models.Household{}, false, nil
	}
	switch u.HouseholdID {
	case "":
		return h, true, nil
	case h.ID:
	default:
		return models.Household{}, false, nil
	}

	items, err := s.foodItems.ListByUser(ctx, u.ID)
	if err != nil {
		return models.Household{}, false, unavailable(op, h.ID, err)
	}
	for _, it := range items {
		if it.HouseholdID != h.ID {
			return h, true, nil
		}
	}
	return models.Household{}, false, nil
}
