package household

import (
	"context"
	"errors"

	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	"github.com/dalemusser/larder/internal/app/system/normalize"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.uber.org/zap"
)

// CreateInvite adds a fresh invite token to the household. Owner only.
func (s *Service) CreateInvite(ctx context.Context, ownerID, householdID string) (string, error) {
	const op = "createInvite"

	ownerID, householdID = normalize.ID(ownerID), normalize.ID(householdID)
	h, err := s.loadHousehold(ctx, op, householdID)
	if err != nil {
		return "", err
	}
	if err := requireOwner(op, h, ownerID); err != nil {
		return "", err
	}

	token := s.newToken()
	if err := s.households.AddInvite(ctx, h.ID, token); err != nil {
		if errors.Is(err, householdstore.ErrNotFound) {
			return "", precondition(op, KindNotFound, h.ID, "household was deleted")
		}
		return "", unavailable(op, h.ID, err)
	}
	s.log.Info("household invite created", zap.String("household_id", h.ID))
	return token, nil
}

// RevokeInvite removes a pending invite token. Owner only; revoking an
// unknown token is a no-op.
func (s *Service) RevokeInvite(ctx context.Context, ownerID, householdID, token string) error {
	const op = "revokeInvite"

	ownerID, householdID, token = normalize.ID(ownerID), normalize.ID(householdID), normalize.ID(token)
	if token == "" {
		return invalid(op, householdID, "invite token is required")
	}
	h, err := s.loadHousehold(ctx, op, householdID)
	if err != nil {
		return err
	}
	if err := requireOwner(op, h, ownerID); err != nil {
		return err
	}
	if err := s.households.RemoveInvite(ctx, h.ID, token); err != nil {
		if errors.Is(err, householdstore.ErrNotFound) {
			return precondition(op, KindNotFound, h.ID, "household was deleted")
		}
		return unavailable(op, h.ID, err)
	}
	return nil
}

// AcceptInvite joins actorID to the household holding token, then consumes
// the token. A failure consuming the token leaves the join in place and
// reports KindPartialFailure; accepting again finishes it.
func (s *Service) AcceptInvite(ctx context.Context, actorID, token string) (models.Household, error) {
	const op = "acceptInvite"

	actorID, token = normalize.ID(actorID), normalize.ID(token)
	if actorID == "" || token == "" {
		return models.Household{}, invalid(op, "", "actor id and invite token are required")
	}

	h, err := s.households.GetByInvite(ctx, token)
	if err != nil {
		if errors.Is(err, householdstore.ErrNotFound) {
			return models.Household{}, precondition(op, KindNotFound, "", "invite is not valid")
		}
		return models.Household{}, unavailable(op, "", err)
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
	if err := s.households.RemoveInvite(ctx, h.ID, token); err != nil {
		return models.Household{}, p.fail(PhaseRemoveInvite, err)
	}
	h.Invites = without(h.Invites, token)

	s.log.Info("household invite accepted",
		zap.String("household_id", h.ID),
		zap.String("user_id", actorID))
	return h, nil
}
