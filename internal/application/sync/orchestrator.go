package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/infrastructure/logger"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
)

// ErrRunInProgress is returned when a run for the same entity family
// already holds the lock
var ErrRunInProgress = errors.New("sync run already in progress for family")

// windowOverlap pads the incremental window backwards so records updated
// while the previous run was writing are not missed
const windowOverlap = 5 * time.Minute

// Orchestrator drives the entity-family pipelines. Each invocation tracks
// one run record: the run reaches failed only when the tracker itself
// cannot start it, every downstream error degrades to a recorded sample on
// a completed_with_errors run.
type Orchestrator struct {
	runs      syncdomain.SyncRunRepository
	shops     catalog.ShopRepository
	progress  ProgressSink
	pipelines map[syncdomain.EntityFamily]Pipeline
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator over the given pipelines
func NewOrchestrator(
	runs syncdomain.SyncRunRepository,
	shops catalog.ShopRepository,
	progress ProgressSink,
	pipelines []Pipeline,
	logger *zap.Logger,
) *Orchestrator {
	byFamily := make(map[syncdomain.EntityFamily]Pipeline, len(pipelines))
	for _, p := range pipelines {
		byFamily[p.Family()] = p
	}
	return &Orchestrator{runs: runs, shops: shops, progress: progress, pipelines: byFamily, logger: logger}
}

// SyncFamily runs one entity-family pipeline over every shop and returns
// its accounting
func (o *Orchestrator) SyncFamily(ctx context.Context, family syncdomain.EntityFamily) (Summary, error) {
	return o.SyncFamilyScoped(ctx, family, "")
}

// SyncFamilyScoped runs one entity-family pipeline, narrowed to a single
// shop when shopID names one by its remote id
func (o *Orchestrator) SyncFamilyScoped(ctx context.Context, family syncdomain.EntityFamily, shopID string) (Summary, error) {
	pipeline, ok := o.pipelines[family]
	if !ok {
		return Summary{}, fmt.Errorf("no pipeline registered for family %q", family)
	}

	var scopedShop *catalog.Shop
	if shopID != "" {
		shop, err := o.shops.FindByPancakeID(ctx, shopID)
		if err != nil {
			return Summary{}, fmt.Errorf("cannot scope run to shop %q: %w", shopID, err)
		}
		scopedShop = shop
	}

	if o.progress != nil {
		acquired, err := o.progress.AcquireRunLock(ctx, string(family))
		if err != nil {
			o.logger.Warn("run lock unavailable, proceeding without it",
				zap.String("family", string(family)), zap.Error(err))
		} else if !acquired {
			return Summary{}, fmt.Errorf("%w: %s", ErrRunInProgress, family)
		} else {
			defer func() {
				if err := o.progress.ReleaseRunLock(context.WithoutCancel(ctx), string(family)); err != nil {
					o.logger.Warn("failed to release run lock",
						zap.String("family", string(family)), zap.Error(err))
				}
			}()
		}
	}

	// Derive the window before the new run row exists, from the latest
	// run visible at this point.
	scope := Scope{ShopID: shopID, Window: o.incrementalWindow(ctx, family)}

	run, err := syncdomain.NewSyncRun(family)
	if err != nil {
		return Summary{}, err
	}
	if scopedShop != nil {
		run.ScopeToShop(scopedShop.ID)
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return Summary{}, fmt.Errorf("failed to create sync run: %w", err)
	}
	if err := run.Start(); err != nil {
		return Summary{}, err
	}
	if err := o.runs.Save(ctx, run); err != nil {
		run.Fail([]syncdomain.RunError{{Message: err.Error()}}, 1)
		return Summary{}, fmt.Errorf("failed to start sync run: %w", err)
	}

	// Every log line and traced query below this point carries the run id.
	ctx, runLogger := logger.WithRunID(ctx, o.logger, run.ID.String())

	runLogger.Info("sync run started", zap.String("family", string(family)))

	state := newRunState(run, o.runs, o.progress, runLogger)

	runErr := pipeline.Run(ctx, state, scope)
	run.RecordProgress(state.created, state.updated, state.failed)

	if runErr != nil {
		if ierr := run.Interrupt(); ierr != nil {
			runLogger.Warn("failed to mark run interrupted", zap.Error(ierr))
		}
		o.saveFinal(ctx, run)
		return state.summary(), runErr
	}

	if err := run.Complete(state.errs.samples, state.errs.total); err != nil {
		runLogger.Warn("failed to complete run", zap.Error(err))
	}
	o.saveFinal(ctx, run)

	summary := state.summary()
	runLogger.Info("sync run finished",
		zap.String("family", string(family)),
		zap.String("status", string(run.Status)),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed),
		zap.Int64("deleted", summary.Deleted),
		zap.Int("errors", summary.Errors),
		zap.Float64("duration_secs", run.DurationSecs))
	return summary, nil
}

// SyncAll runs every registered pipeline in dependency order. A failing
// family is reported and the remaining families still run; only context
// cancellation stops the sequence.
func (o *Orchestrator) SyncAll(ctx context.Context) ([]Summary, error) {
	var summaries []Summary
	for _, family := range syncdomain.AllFamilies() {
		if _, ok := o.pipelines[family]; !ok {
			continue
		}
		summary, err := o.SyncFamily(ctx, family)
		summaries = append(summaries, summary)
		if err != nil {
			if ctx.Err() != nil {
				return summaries, err
			}
			o.logger.Error("family sync failed",
				zap.String("family", string(family)), zap.Error(err))
		}
	}
	return summaries, nil
}

// incrementalWindow derives the updated-at window from the previous
// successful run of the family. A missing or failed previous run means a
// full sync.
func (o *Orchestrator) incrementalWindow(ctx context.Context, family syncdomain.EntityFamily) *pancake.TimeWindow {
	// Only the windowed collections benefit; the rest always list in full.
	if family != syncdomain.FamilyCustomers && family != syncdomain.FamilyOrders {
		return nil
	}

	last, err := o.runs.FindLatestByFamily(ctx, family)
	if err != nil || last == nil {
		return nil
	}
	if last.Status != syncdomain.RunStatusCompleted && last.Status != syncdomain.RunStatusCompletedWithErrors {
		return nil
	}
	if last.StartedAt == nil {
		return nil
	}

	start := last.StartedAt.Add(-windowOverlap)
	return &pancake.TimeWindow{Start: &start}
}

// saveFinal persists a terminal run state, logging rather than overriding
// the pipeline outcome on failure
func (o *Orchestrator) saveFinal(ctx context.Context, run *syncdomain.SyncRun) {
	if err := o.runs.Save(context.WithoutCancel(ctx), run); err != nil {
		o.logger.Error("failed to persist final run state",
			zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}
