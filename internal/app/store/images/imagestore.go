// internal/app/store/images/imagestore.go
package imagestore

import (
	"context"

	"github.com/dalemusser/larder/internal/app/system/dbretry"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds image documents (profile pictures and food item photos).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profilePictures")}
}

// Count returns how many of the given ids still exist.
func (s *Store) Count(ctx context.Context, ids []string) (int64, error) {
	var n int64
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.c.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
		return err
	})
	return n, err
}

// Save upserts an image document keyed by its id.
func (s *Store) Save(ctx context.Context, p models.ProfilePicture) error {
	return dbretry.Do(ctx, func(ctx context.Context) error {
		_, err := s.c.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
		return err
	})
}

// DeleteMany removes the listed images in one ordered batch.
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
