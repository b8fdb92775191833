// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/larder/internal/app/system/auditlog"
	"github.com/dalemusser/larder/internal/app/system/batch"
	"github.com/dalemusser/larder/internal/app/system/dbretry"
	"github.com/dalemusser/larder/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Larder.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, batch_max_ops, etc.
//   - Environment variables: LARDER_MONGO_URI, LARDER_BATCH_MAX_OPS, etc.
//   - Command-line flags: --mongo_uri, --batch_max_ops, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "larder", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Batched writes and retries
	{Name: "batch_max_ops", Default: batch.DefaultMaxOps, Desc: "Max documents touched by one bulk write during a sweep"},
	{Name: "store_max_retries", Default: 3, Desc: "Retries after the first attempt when MongoDB is unreachable"},
	{Name: "store_retry_base", Default: "100ms", Desc: "First retry backoff interval (doubles each retry)"},

	// Deadlines
	{Name: "read_timeout", Default: "5s", Desc: "Deadline for single reads"},
	{Name: "write_timeout", Default: "10s", Desc: "Deadline for single-document writes"},
	{Name: "sweep_timeout", Default: "2m", Desc: "Deadline for a whole multi-write operation (create, retype, delete)"},

	// Audit logging settings
	{Name: "audit_households", Default: "all", Desc: "Household event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Reconcile worker
	{Name: "reconcile_interval", Default: "15m", Desc: "How often to repair every household (0 disables)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// LARDER_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "LARDER", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		BatchMaxOps:     appValues.Int("batch_max_ops"),
		StoreMaxRetries: uint64(appValues.Int("store_max_retries")),
		StoreRetryBase:  appValues.Duration("store_retry_base", dbretry.DefaultPolicy.Base),

		ReadTimeout:  appValues.Duration("read_timeout", 5*time.Second),
		WriteTimeout: appValues.Duration("write_timeout", 10*time.Second),
		SweepTimeout: appValues.Duration("sweep_timeout", 2*time.Minute),

		AuditHouseholds: appValues.String("audit_households"),
		AuditAdmin:      appValues.String("audit_admin"),

		ReconcileInterval: appValues.Duration("reconcile_interval", 15*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked here so a typo fails startup before
// any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if appCfg.BatchMaxOps < 1 {
		return fmt.Errorf("batch_max_ops must be at least 1, got %d", appCfg.BatchMaxOps)
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	for key, mode := range map[string]string{
		"audit_households": appCfg.AuditHouseholds,
		"audit_admin":      appCfg.AuditAdmin,
	} {
		switch mode {
		case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff, "":
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, mode)
		}
	}
	if appCfg.ReconcileInterval < 0 {
		return fmt.Errorf("reconcile_interval must not be negative")
	}
	return nil
}

// applyTuning pushes the batching, retry and deadline settings into the
// process-wide knobs read by the stores and the engine.
func applyTuning(appCfg AppConfig) {
	batch.Configure(appCfg.BatchMaxOps)
	dbretry.Configure(dbretry.Policy{
		MaxRetries: appCfg.StoreMaxRetries,
		Base:       appCfg.StoreRetryBase,
	})
	timeouts.Configure(timeouts.Config{
		Read:  appCfg.ReadTimeout,
		Write: appCfg.WriteTimeout,
		Sweep: appCfg.SweepTimeout,
	})
}
