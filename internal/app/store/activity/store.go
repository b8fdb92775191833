// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"github.com/dalemusser/larder/internal/app/system/dbretry"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages activity history entries.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activities")}
}

// Record inserts an activity, filling in id and timestamp when absent.
func (s *Store) Record(ctx context.Context, a models.Activity) (models.Activity, error) {
	if a.ID == "" {
		a.ID = primitive.NewObjectID().Hex()
	}
	if a.Timestamp == 0 {
		a.Timestamp = time.Now().UnixMilli()
	}
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		_, err := s.c.InsertOne(ctx, a)
		return err
	})
	if err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

// ListByHousehold returns every household-scoped activity, soft-deleted
// entries included, newest first.
func (s *Store) ListByHousehold(ctx context.Context, householdID string) ([]models.Activity, error) {
	var out []models.Activity
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		cur, err := s.c.Find(ctx, bson.M{"householdId": householdID},
			options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
		if err != nil {
			return err
		}
		defer cur.Close(ctx)
		out = out[:0]
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteMany hard-deletes the listed activities in one ordered batch.
func (s *Store) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		writes = append(writes, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": id}))
	}
	return dbretry.Do(ctx, func(ctx context.Context) error {
		_, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
		return err
	})
}
