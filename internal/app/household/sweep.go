package household

import (
	"context"
)

// reparent points every food item owned by userID at target ("" orphans
// them). Items already pointing at target are skipped. Touches only food
// items and is safe to re-run.
func (s *Service) reparent(ctx context.Context, p *progress, userID, target string) (int, error) {
	items, err := s.foodItems.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.HouseholdID != target {
			ids = append(ids, it.ID)
		}
	}

	moved := 0
	err = s.sweep(ctx, p, ids, func(ctx context.Context, chunk []string) error {
		if err := s.foodItems.SetHousehold(ctx, chunk, target); err != nil {
			return err
		}
		moved += len(chunk)
		return nil
	})
	return moved, err
}
