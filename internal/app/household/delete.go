package household

import (
	"context"

	"github.com/dalemusser/larder/internal/app/system/normalize"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DeleteResult counts what a successful Delete removed.
type DeleteResult struct {
	HouseholdID string `json:"householdId"`
	Members     int    `json:"members"`
	FoodItems   int    `json:"foodItems"`
	Images      int    `json:"images"`
	Activities  int    `json:"activities"`
}

// Delete removes the household and everything that references it.
//
// Order: collect, clear member back-references, delete images, delete food
// items, delete activities, delete the household document. Images go before
// food items so a retried delete can still find their ids. The household
// document goes last so a failed delete can be re-issued against the same
// id. Every step is delete-or-clear-if-present.
func (s *Service) Delete(ctx context.Context, actorID, householdID string) (DeleteResult, error) {
	const op = "delete"

	actorID, householdID = normalize.ID(actorID), normalize.ID(householdID)
	h, err := s.loadHousehold(ctx, op, householdID)
	if err != nil {
		return DeleteResult{}, err
	}
	if err := requireOwner(op, h, actorID); err != nil {
		return DeleteResult{}, err
	}

	var (
		linked []models.User
		items  []models.FoodItem
		acts   []models.Activity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		linked, err = s.users.ListByHousehold(gctx, h.ID)
		return err
	})
	g.Go(func() (err error) {
		items, err = s.foodItems.ListByHousehold(gctx, h.ID)
		return err
	})
	g.Go(func() (err error) {
		acts, err = s.activities.ListByHousehold(gctx, h.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return DeleteResult{}, unavailable(op, h.ID, err)
	}

	members := append([]string(nil), h.Users...)
	for _, u := range linked {
		members = appendUnique(members, u.ID)
	}
	itemIDs := make([]string, 0, len(items))
	var imageIDs []string
	for _, it := range items {
		itemIDs = append(itemIDs, it.ID)
		if it.ImageID != "" {
			imageIDs = appendUnique(imageIDs, it.ImageID)
		}
	}
	actIDs := make([]string, len(acts))
	for i, a := range acts {
		actIDs[i] = a.ID
	}

	p := s.begin(op, h.ID)

	if err := s.sweep(ctx, p, members, func(ctx context.Context, chunk []string) error {
		return s.users.ClearHouseholdMany(ctx, chunk, h.ID)
	}); err != nil {
		return DeleteResult{}, p.fail(PhaseClearMembers, err)
	}
	if err := s.sweep(ctx, p, imageIDs, s.images.DeleteMany); err != nil {
		return DeleteResult{}, p.fail(PhaseDeleteImages, err)
	}
	if err := s.sweep(ctx, p, itemIDs, s.foodItems.DeleteMany); err != nil {
		return DeleteResult{}, p.fail(PhaseDeleteFoodItems, err)
	}
	if err := s.sweep(ctx, p, actIDs, s.activities.DeleteMany); err != nil {
		return DeleteResult{}, p.fail(PhaseDeleteActivities, err)
	}
	if err := s.households.Delete(ctx, h.ID); err != nil {
		return DeleteResult{}, p.fail(PhaseDeleteHousehold, err)
	}

	res := DeleteResult{
		HouseholdID: h.ID,
		Members:     len(members),
		FoodItems:   len(itemIDs),
		Images:      len(imageIDs),
		Activities:  len(actIDs),
	}
	s.log.Info("household deleted",
		zap.String("household_id", h.ID),
		zap.String("actor_id", actorID),
		zap.Int("members", res.Members),
		zap.Int("food_items", res.FoodItems),
		zap.Int("images", res.Images),
		zap.Int("activities", res.Activities))
	return res, nil
}
