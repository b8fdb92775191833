package household

import (
	"context"
	"errors"

	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	"github.com/dalemusser/larder/internal/app/system/normalize"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.uber.org/zap"
)

// Get returns the household snapshot for id.
func (s *Service) Get(ctx context.Context, householdID string) (models.Household, error) {
	householdID = normalize.ID(householdID)
	if householdID == "" {
		return models.Household{}, invalid("get", "", "household id is required")
	}
	return s.loadHousehold(ctx, "get", householdID)
}

// GetHouseholdForUser returns the household whose users list contains
// userID, or KindNotFound.
func (s *Service) GetHouseholdForUser(ctx context.Context, userID string) (models.Household, error) {
	const op = "getHouseholdForUser"

	userID = normalize.ID(userID)
	if userID == "" {
		return models.Household{}, invalid(op, "", "user id is required")
	}
	h, err := s.households.GetByMember(ctx, userID)
	if err != nil {
		if errors.Is(err, householdstore.ErrNotFound) {
			return models.Household{}, precondition(op, KindNotFound, "", "user has no household")
		}
		return models.Household{}, unavailable(op, "", err)
	}
	return h, nil
}

// Rename sets a new display name. Owner only.
func (s *Service) Rename(ctx context.Context, ownerID, householdID, name string) (models.Household, error) {
	const op = "rename"

	ownerID, householdID = normalize.ID(ownerID), normalize.ID(householdID)
	name = normalize.HouseholdName(name)
	if name == "" {
		return models.Household{}, invalid(op, householdID, "name is required")
	}
	h, err := s.loadHousehold(ctx, op, householdID)
	if err != nil {
		return models.Household{}, err
	}
	if err := requireOwner(op, h, ownerID); err != nil {
		return models.Household{}, err
	}
	if h.Name == name {
		return h, nil
	}
	if err := s.households.UpdateField(ctx, h.ID, householdstore.FieldName, name); err != nil {
		if errors.Is(err, householdstore.ErrNotFound) {
			return models.Household{}, precondition(op, KindNotFound, h.ID, "household was deleted")
		}
		return models.Household{}, unavailable(op, h.ID, err)
	}
	h.Name = name
	s.log.Info("household renamed", zap.String("household_id", h.ID))
	return h, nil
}
