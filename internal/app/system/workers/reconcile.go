// internal/app/system/workers/reconcile.go
package workers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/app/store/audit"
	"github.com/dalemusser/larder/internal/app/system/auditlog"
	"github.com/dalemusser/larder/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type householdLister interface {
	ListIDs(ctx context.Context, afterID string, limit int64) ([]string, error)
}

type repairer interface {
	Repair(ctx context.Context, householdID string) (household.RepairResult, error)
}

// DefaultPageSize is how many household ids one reconcile pass reads at a time.
const DefaultPageSize = 100

// Reconciler is a background worker that runs a repair pass over every
// household, healing dangling memberships left by interrupted two-write
// operations.
type Reconciler struct {
	households householdLister
	svc        repairer
	audit      *auditlog.Logger
	log        *zap.Logger
	interval   time.Duration
	pageSize   int64
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// ReconcileSummary reports one pass.
type ReconcileSummary struct {
	Scanned  int
	Repaired int
	Failed   int
}

// NewReconciler creates a reconcile worker.
//
// Parameters:
//   - households: lists household ids page by page
//   - svc: the membership engine (its Repair)
//   - audit: records each household that needed a fix; may be nil
//   - interval: how often to run a full pass (e.g., 15 minutes)
func NewReconciler(households householdLister, svc repairer, audit *auditlog.Logger, logger *zap.Logger, interval time.Duration) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		households: households,
		svc:        svc,
		audit:      audit,
		log:        logger,
		interval:   interval,
		pageSize:   DefaultPageSize,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the background reconcile loop.
func (w *Reconciler) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("reconcile worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *Reconciler) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("reconcile worker stopped")
}

func (w *Reconciler) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), w.interval)
			if _, err := w.RunOnce(ctx); err != nil {
				w.log.Error("reconcile pass aborted", zap.Error(err))
			}
			cancel()
		}
	}
}

// RunOnce repairs every household once. A failure on one household is
// logged and counted; only a listing failure aborts the pass.
func (w *Reconciler) RunOnce(ctx context.Context) (ReconcileSummary, error) {
	var sum ReconcileSummary
	after := ""
	for {
		select {
		case <-w.stopCh:
			return sum, nil
		default:
		}

		page, err := w.households.ListIDs(ctx, after, w.pageSize)
		if err != nil {
			return sum, err
		}
		if len(page) == 0 {
			break
		}
		for _, id := range page {
			sum.Scanned++
			w.repairOne(ctx, id, &sum)
		}
		after = page[len(page)-1]
	}

	if sum.Repaired > 0 || sum.Failed > 0 {
		w.log.Info("reconcile pass finished",
			zap.Int("scanned", sum.Scanned),
			zap.Int("repaired", sum.Repaired),
			zap.Int("failed", sum.Failed))
	}
	return sum, nil
}

func (w *Reconciler) repairOne(ctx context.Context, id string, sum *ReconcileSummary) {
	rctx, cancel := context.WithTimeout(ctx, timeouts.Sweep())
	defer cancel()

	res, err := w.svc.Repair(rctx, id)
	switch {
	case household.KindOf(err) == household.KindNotFound:
		// Deleted since the page was read.
	case err != nil:
		sum.Failed++
		w.log.Warn("household repair failed", zap.String("household_id", id), zap.Error(err))
		w.audit.Admin(ctx, nil, audit.EventHouseholdRepaired, id, "", err, nil)
	case res.Changed():
		sum.Repaired++
		w.audit.Admin(ctx, nil, audit.EventHouseholdRepaired, id, "", nil, map[string]string{
			"linked":   strings.Join(res.Linked, ","),
			"pruned":   strings.Join(res.Pruned, ","),
			"unlinked": strings.Join(res.Unlinked, ","),
		})
	}
}
