package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/larder/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user document. An empty householdID leaves the
// field absent.
func (f *Fixtures) CreateUser(ctx context.Context, id, householdID string) models.User {
	f.t.Helper()

	u := models.User{ID: id, HouseholdID: householdID}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateHousehold inserts a household owned by ownerID with the given members.
func (f *Fixtures) CreateHousehold(ctx context.Context, name string, typ models.HouseholdType, ownerID string, members ...string) models.Household {
	f.t.Helper()

	users := append([]string{ownerID}, members...)
	h := models.Household{
		ID:        primitive.NewObjectID().Hex(),
		Name:      name,
		Type:      typ,
		OwnerID:   ownerID,
		Users:     users,
		Invites:   []string{},
		CreatedAt: time.Now().UnixMilli(),
	}
	if _, err := f.db.Collection("households").InsertOne(ctx, h); err != nil {
		f.t.Fatalf("failed to create test household: %v", err)
	}
	return h
}

// CreateFoodItem inserts a food item owned by userID.
func (f *Fixtures) CreateFoodItem(ctx context.Context, userID, householdID, imageID string) models.FoodItem {
	f.t.Helper()

	item := models.FoodItem{
		ID:          primitive.NewObjectID().Hex(),
		UserID:      userID,
		HouseholdID: householdID,
		ImageID:     imageID,
	}
	if _, err := f.db.Collection("foodItems").InsertOne(ctx, item); err != nil {
		f.t.Fatalf("failed to create test food item: %v", err)
	}
	return item
}

// CreateActivity inserts a household-scoped activity.
func (f *Fixtures) CreateActivity(ctx context.Context, householdID string) models.Activity {
	f.t.Helper()

	a := models.Activity{
		ID:          primitive.NewObjectID().Hex(),
		HouseholdID: householdID,
		Timestamp:   time.Now().UnixMilli(),
	}
	if _, err := f.db.Collection("activities").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test activity: %v", err)
	}
	return a
}

// CreateImage inserts a profile picture document.
func (f *Fixtures) CreateImage(ctx context.Context, id, userID string) models.ProfilePicture {
	f.t.Helper()

	p := models.ProfilePicture{ID: id, UserID: userID}
	if _, err := f.db.Collection("profilePictures").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test image: %v", err)
	}
	return p
}
