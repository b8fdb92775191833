// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/app/store/audit"
	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	"github.com/dalemusser/larder/internal/app/system/auditlog"
	"github.com/dalemusser/larder/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

var (
	workerMu   sync.Mutex
	reconciler *workers.Reconciler
)

// Startup runs after DB connections and schema setup, before the HTTP
// handler is built. It starts the reconcile worker when enabled.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.ReconcileInterval <= 0 {
		logger.Info("reconcile worker disabled")
		return nil
	}

	db := deps.LarderMongoDatabase
	svc := household.NewFromDB(db, logger.Named("household"))
	auditLog := newAuditLogger(appCfg, deps, logger)

	workerMu.Lock()
	defer workerMu.Unlock()
	reconciler = workers.NewReconciler(householdstore.New(db), svc, auditLog, logger.Named("reconcile"), appCfg.ReconcileInterval)
	reconciler.Start()
	return nil
}

func stopWorkers() {
	workerMu.Lock()
	defer workerMu.Unlock()
	if reconciler != nil {
		reconciler.Stop()
		reconciler = nil
	}
}

func newAuditLogger(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.LarderMongoDatabase), logger.Named("audit"), auditlog.Config{
		Households: appCfg.AuditHouseholds,
		Admin:      appCfg.AuditAdmin,
	})
}
