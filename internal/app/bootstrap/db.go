// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/larder/internal/app/store/audit"
	"github.com/dalemusser/larder/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	pool := poolConfig(appCfg)
	if coreCfg != nil && coreCfg.DBConnectTimeout > 0 {
		pool.ConnectTimeout = coreCfg.DBConnectTimeout
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, pool)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, err
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", pool.MaxPoolSize),
		zap.Uint64("min_pool", pool.MinPoolSize))

	return DBDeps{
		LarderMongoClient:   client,
		LarderMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// Connect builds a pooled client from the app config. It is shared with
// the operator CLI, which does not go through WAFFLE's lifecycle.
func Connect(ctx context.Context, appCfg AppConfig) (*mongo.Client, error) {
	return wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolConfig(appCfg))
}

// poolConfig starts from WAFFLE's defaults and applies the configured pool
// bounds; zero keeps the default.
func poolConfig(appCfg AppConfig) wafflemongo.PoolConfig {
	pool := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		pool.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		pool.MinPoolSize = appCfg.MongoMinPoolSize
	}
	return pool
}

// EnsureSchema creates the indexes every store relies on, including the
// audit collection's.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	applyTuning(appCfg)

	if err := indexes.EnsureAll(ctx, deps.LarderMongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	if err := audit.New(deps.LarderMongoDatabase).EnsureIndexes(ctx); err != nil {
		logger.Error("ensure audit indexes failed", zap.Error(err))
		return err
	}
	return nil
}
