package household

import (
	activitystore "github.com/dalemusser/larder/internal/app/store/activity"
	fooditemstore "github.com/dalemusser/larder/internal/app/store/fooditems"
	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	imagestore "github.com/dalemusser/larder/internal/app/store/images"
	userstore "github.com/dalemusser/larder/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NewFromDB wires a Service to the Mongo-backed stores in db.
func NewFromDB(db *mongo.Database, logger *zap.Logger, opts ...Option) *Service {
	return New(
		householdstore.New(db),
		userstore.New(db),
		fooditemstore.New(db),
		activitystore.New(db),
		imagestore.New(db),
		logger,
		opts...,
	)
}
