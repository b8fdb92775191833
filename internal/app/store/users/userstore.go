// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/larder/internal/app/system/dbretry"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads users and writes only their householdId back-reference.
type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("user not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Get returns the user's household view.
func (s *Store) Get(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		return s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"householdId": 1})).Decode(&u)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// ListByHousehold returns every user whose back-reference points at householdID.
func (s *Store) ListByHousehold(ctx context.Context, householdID string) ([]models.User, error) {
	var users []models.User
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		cur, err := s.c.Find(ctx, bson.M{"householdId": householdID}, options.Find().SetProjection(bson.M{"householdId": 1}))
		if err != nil {
			return err
		}
		defer cur.Close(ctx)
		users = users[:0]
		return cur.All(ctx, &users)
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SetHousehold points the user at householdID.
func (s *Store) SetHousehold(ctx context.Context, userID, householdID string) error {
	var res *mongo.UpdateResult
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.c.UpdateByID(ctx, userID, bson.M{"$set": bson.M{"householdId": householdID}})
		return err
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkHousehold points the user at householdID only when the user has no
// household or already points at it, and reports whether the user now
// points at householdID. A user linked elsewhere is left alone.
func (s *Store) LinkHousehold(ctx context.Context, userID, householdID string) (bool, error) {
	filter := bson.M{
		"_id":         userID,
		"householdId": bson.M{"$in": bson.A{nil, "", householdID}},
	}
	var res *mongo.UpdateResult
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"householdId": householdID}})
		return err
	})
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	var n int64
	err = dbretry.Do(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.c.CountDocuments(ctx, bson.M{"_id": userID})
		return err
	})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

// ClearHousehold removes the user's back-reference if, and only if, it still
// points at householdID. A user already pointing elsewhere (or nowhere) is
// left alone, so repeating the call is harmless.
func (s *Store) ClearHousehold(ctx context.Context, userID, householdID string) error {
	return dbretry.Do(ctx, func(ctx context.Context) error {
		_, err := s.c.UpdateOne(ctx,
			bson.M{"_id": userID, "householdId": householdID},
			bson.M{"$unset": bson.M{"householdId": ""}},
		)
		return err
	})
}

// ClearHouseholdMany clears the back-reference of every listed user still
// pointing at householdID in one ordered batch. Callers keep len(userIDs)
// within the store's batch cap.
func (s *Store) ClearHouseholdMany(ctx context.Context, userIDs []string, householdID string) error {
	if len(userIDs) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(userIDs))
	for _, id := range userIDs {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "householdId": householdID}).
			SetUpdate(bson.M{"$unset": bson.M{"householdId": ""}}))
	}
	return dbretry.Do(ctx, func(ctx context.Context) error {
		_, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
		return err
	})
}
