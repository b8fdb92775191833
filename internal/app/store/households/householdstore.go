// internal/app/store/households/householdstore.go
package householdstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/larder/internal/app/system/dbretry"
	"github.com/dalemusser/larder/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the only writer of the households collection.
type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound      = errors.New("household not found")
	ErrAlreadyExists = errors.New("household already exists")
	ErrBadField      = errors.New("household field is not updatable")
)

// Updatable fields accepted by UpdateField. Membership and invites change
// only through the array operations below; id and createdAt never change.
const (
	FieldName    = "name"
	FieldType    = "type"
	FieldOwnerID = "ownerId"
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("households")}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Household, error) {
	var h models.Household
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		return s.c.FindOne(ctx, filter).Decode(&h)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Household{}, ErrNotFound
		}
		return models.Household{}, err
	}
	return h, nil
}

// Get returns the household with the given id.
func (s *Store) Get(ctx context.Context, id string) (models.Household, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByMember returns the household whose users contain userID.
func (s *Store) GetByMember(ctx context.Context, userID string) (models.Household, error) {
	return s.findOne(ctx, bson.M{"users": userID})
}

// GetByInvite returns the household holding the pending invite token.
func (s *Store) GetByInvite(ctx context.Context, token string) (models.Household, error) {
	return s.findOne(ctx, bson.M{"invites": token})
}

// Create inserts h, assigning an id and createdAt when absent.
//
// A duplicate id, or an owner that already owns a household (unique
// idx_households_owner), returns ErrAlreadyExists, except when the stored document
// is this same household (same owner and createdAt), which happens when a
// retried insert had already landed; that case returns the stored document.
func (s *Store) Create(ctx context.Context, h models.Household) (models.Household, error) {
	if h.ID == "" {
		h.ID = primitive.NewObjectID().Hex()
	}
	if h.CreatedAt == 0 {
		h.CreatedAt = time.Now().UnixMilli()
	}
	if h.Users == nil {
		h.Users = []string{}
	}
	if h.Invites == nil {
		h.Invites = []string{}
	}

	err := dbretry.Do(ctx, func(ctx context.Context) error {
		_, err := s.c.InsertOne(ctx, h)
		return err
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			existing, gerr := s.Get(ctx, h.ID)
			if gerr == nil && existing.OwnerID == h.OwnerID && existing.CreatedAt == h.CreatedAt {
				return existing, nil
			}
			return models.Household{}, ErrAlreadyExists
		}
		return models.Household{}, err
	}
	return h, nil
}

// UpdateField sets one scalar field. Returns ErrNotFound if the household
// vanished since it was read.
func (s *Store) UpdateField(ctx context.Context, id, field string, value any) error {
	switch field {
	case FieldName, FieldType, FieldOwnerID:
	default:
		return ErrBadField
	}
	return s.update(ctx, id, bson.M{"$set": bson.M{field: value}})
}

// AddMember array-unions userID into users.
func (s *Store) AddMember(ctx context.Context, id, userID string) error {
	return s.update(ctx, id, bson.M{"$addToSet": bson.M{"users": userID}})
}

// RemoveMembers array-removes every given id from users in one write.
func (s *Store) RemoveMembers(ctx context.Context, id string, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	return s.update(ctx, id, bson.M{"$pullAll": bson.M{"users": userIDs}})
}

// AddInvite array-unions token into invites.
func (s *Store) AddInvite(ctx context.Context, id, token string) error {
	return s.update(ctx, id, bson.M{"$addToSet": bson.M{"invites": token}})
}

// RemoveInvite array-removes token from invites.
func (s *Store) RemoveInvite(ctx context.Context, id, token string) error {
	return s.update(ctx, id, bson.M{"$pull": bson.M{"invites": token}})
}

func (s *Store) update(ctx context.Context, id string, upd bson.M) error {
	var res *mongo.UpdateResult
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.c.UpdateByID(ctx, id, upd)
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

// Delete removes the household document. Deleting a missing household is
// not an error so a retried delete can finish.
func (s *Store) Delete(ctx context.Context, id string) error {
	return dbretry.Do(ctx, func(ctx context.Context) error {
		_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
}

// ListIDs returns up to limit household ids greater than afterID, in id
// order. Pass the last id of one page as afterID to get the next.
func (s *Store) ListIDs(ctx context.Context, afterID string, limit int64) ([]string, error) {
	filter := bson.M{}
	if afterID != "" {
		filter["_id"] = bson.M{"$gt": afterID}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetProjection(bson.M{"_id": 1})

	var rows []struct {
		ID string `bson:"_id"`
	}
	err := dbretry.Do(ctx, func(ctx context.Context) error {
		cur, err := s.c.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)
		rows = rows[:0]
		return cur.All(ctx, &rows)
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}
