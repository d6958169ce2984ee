package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appsync "github.com/pancake-sync/backend/internal/application/sync"
)

// Config holds the trigger cadence
type Config struct {
	// Interval is how often a full sync sweep runs
	Interval time.Duration

	// MaintenanceEvery is how often the housekeeping passes run
	MaintenanceEvery time.Duration
}

// DefaultConfig returns the default trigger cadence
func DefaultConfig() Config {
	return Config{
		Interval:         30 * time.Minute,
		MaintenanceEvery: time.Hour,
	}
}

// SyncTrigger periodically drives the orchestrator through a full sweep of
// every entity family and runs the maintenance passes on their own cadence.
type SyncTrigger struct {
	config       Config
	orchestrator *appsync.Orchestrator
	maintenance  *appsync.Maintenance
	logger       *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncTrigger creates a new sync trigger
func NewSyncTrigger(
	config Config,
	orchestrator *appsync.Orchestrator,
	maintenance *appsync.Maintenance,
	logger *zap.Logger,
) *SyncTrigger {
	return &SyncTrigger{
		config:       config,
		orchestrator: orchestrator,
		maintenance:  maintenance,
		logger:       logger,
	}
}

// Start starts the trigger loops
func (t *SyncTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(2)
	go t.syncLoop(ctx)
	go t.maintenanceLoop(ctx)

	t.logger.Info("Sync trigger started",
		zap.Duration("interval", t.config.Interval),
		zap.Duration("maintenance_every", t.config.MaintenanceEvery),
	)
	return nil
}

// Stop stops the trigger, waiting for in-flight work up to the context
// deadline
func (t *SyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// syncLoop runs a full sweep immediately and then on every tick
func (t *SyncTrigger) syncLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	t.runSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.runSweep(ctx)
		}
	}
}

func (t *SyncTrigger) runSweep(ctx context.Context) {
	summaries, err := t.orchestrator.SyncAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		t.logger.Error("sync sweep failed", zap.Error(err))
	}
	for _, s := range summaries {
		t.logger.Debug("family sweep finished",
			zap.String("family", string(s.Family)),
			zap.Bool("success", s.Success),
			zap.Int("errors", s.Errors),
		)
	}
}

// maintenanceLoop runs the housekeeping passes on their own cadence
func (t *SyncTrigger) maintenanceLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.MaintenanceEvery)
	defer ticker.Stop()

	t.runMaintenance(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.runMaintenance(ctx)
		}
	}
}

func (t *SyncTrigger) runMaintenance(ctx context.Context) {
	if _, err := t.maintenance.SweepStaleRuns(ctx); err != nil {
		t.logger.Error("stale run sweep failed", zap.Error(err))
	}
	if _, err := t.maintenance.PurgeOldRuns(ctx); err != nil {
		t.logger.Error("run purge failed", zap.Error(err))
	}
}
