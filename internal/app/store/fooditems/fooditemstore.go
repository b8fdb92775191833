// internal/app/store/fooditems/fooditemstore.go
package fooditemstore

import (
	"context"

	"github.com/dalemusser/larder/internal/app/system/dbretry"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("foodItems")}
}

var refProjection = bson.M{"userId": 1, "householdId": 1, "imageId": 1}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.FoodItem, error) {
	var items []models.FoodItem
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(refProjection))
		if err != nil {
			return err
		}
		defer cur.Close(ctx)
		items = items[:0]
		return cur.All(ctx, &items)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListByUser returns every food item originally owned by userID.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.FoodItem, error) {
	return s.find(ctx, bson.M{"userId": userID})
}

// ListByHousehold returns every food item parented to householdID.
func (s *Store) ListByHousehold(ctx context.Context, householdID string) ([]models.FoodItem, error) {
	return s.find(ctx, bson.M{"householdId": householdID})
}

// Create inserts a food item, assigning an id when absent.
func (s *Store) Create(ctx context.Context, item models.FoodItem) (models.FoodItem, error) {
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		_, err := s.c.InsertOne(ctx, item)
		return err
	})
	if err != nil {
		return models.FoodItem{}, err
	}
	return item, nil
}

// SetHousehold re-parents the listed items in one ordered batch. An empty
// householdID orphans them. Callers keep len(ids) within the batch cap.
func (s *Store) SetHousehold(ctx context.Context, ids []string, householdID string) error {
	if len(ids) == 0 {
		return nil
	}
	upd := bson.M{"$set": bson.M{"householdId": householdID}}
	if householdID == "" {
		upd = bson.M{"$unset": bson.M{"householdId": ""}}
	}
	writes := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		writes = append(writes, mongo.NewUpdateOneModel().SetFilter(bson.M{"_id": id}).SetUpdate(upd))
	}
	return dbretry.Do(ctx, func(ctx context.Context) error {
		_, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
		return err
	})
}

// DeleteMany removes the listed items in one ordered batch.
// Missing ids are ignored.
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
