// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureHouseholds(ctx, db); err != nil {
		problems = append(problems, "households: "+err.Error())
	}
	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureFoodItems(ctx, db); err != nil {
		problems = append(problems, "foodItems: "+err.Error())
	}
	if err := ensureActivities(ctx, db); err != nil {
		problems = append(problems, "activities: "+err.Error())
	}
	if err := ensureProfilePictures(ctx, db); err != nil {
		problems = append(problems, "profilePictures: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

// ensureIndexSet creates each desired index unless one with the same keys
// and uniqueness already exists. An existing index with the same keys but a
// different name or uniqueness is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			zap.L().Info("realigning index",
				zap.String("collection", coll.Name()),
				zap.String("from", ex.Name),
				zap.String("to", desiredName),
				zap.String("keys", desiredSig))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                  */
/* -------------------------------------------------------------------------- */

func ensureHouseholds(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("households"), []mongo.IndexModel{
		{
			// getByMember: users contains userId
			Keys:    bson.D{{Key: "users", Value: 1}},
			Options: options.Index().SetName("idx_households_users"),
		},
		{
			Keys:    bson.D{{Key: "invites", Value: 1}},
			Options: options.Index().SetName("idx_households_invites"),
		},
		{
			// one owned household per user; concurrent creates lose with a dup key
			Keys:    bson.D{{Key: "ownerId", Value: 1}},
			Options: options.Index().SetName("idx_households_owner").SetUnique(true),
		},
	})
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "householdId", Value: 1}},
			Options: options.Index().SetName("idx_users_household").SetSparse(true),
		},
	})
}

func ensureFoodItems(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("foodItems"), []mongo.IndexModel{
		{
			// re-parenting sweep
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("idx_fooditems_user"),
		},
		{
			// cascade delete
			Keys:    bson.D{{Key: "householdId", Value: 1}},
			Options: options.Index().SetName("idx_fooditems_household").SetSparse(true),
		},
	})
}

func ensureActivities(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("activities"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "householdId", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_activities_household_ts"),
		},
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_activities_user_ts").SetSparse(true),
		},
	})
}

func ensureProfilePictures(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("profilePictures"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("idx_profilepictures_user"),
		},
	})
}
