package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
)

// Config carries the tuning knobs shared by all pipelines
type Config struct {
	// Page sizes per collection, matched to remote API limits
	CategoryPageSize int
	ProductPageSize  int
	UserPageSize     int
	CustomerPageSize int
	OrderPageSize    int

	// PagePause is the politeness delay between consecutive page fetches
	PagePause time.Duration
}

// DefaultConfig returns the page sizes the remote API tolerates
func DefaultConfig() Config {
	return Config{
		CategoryPageSize: pancake.DefaultPageSize,
		ProductPageSize:  pancake.DefaultProductPageSize,
		UserPageSize:     pancake.DefaultCustomerPageSize,
		CustomerPageSize: pancake.DefaultCustomerPageSize,
		OrderPageSize:    pancake.DefaultOrderPageSize,
		PagePause:        100 * time.Millisecond,
	}
}

// Summary is the final accounting of one run
type Summary struct {
	Family  syncdomain.EntityFamily
	RunID   string
	Created int
	Updated int
	Failed  int
	Deleted int64
	Errors  int
	Success bool
}

// errorList accumulates run errors keeping a bounded sample window and the
// true total
type errorList struct {
	total   int
	samples []syncdomain.RunError
}

func (l *errorList) add(shop string, page int, operation string, err error) {
	l.total++
	if len(l.samples) >= syncdomain.MaxErrorSamples {
		return
	}
	l.samples = append(l.samples, syncdomain.RunError{
		Shop:      shop,
		Page:      page,
		Operation: operation,
		Message:   err.Error(),
	})
}

// runState is the per-invocation context shared by a pipeline and the
// orchestrator: the tracked run, rolling counters and the error window.
type runState struct {
	run      *syncdomain.SyncRun
	runs     syncdomain.SyncRunRepository
	progress ProgressSink
	logger   *zap.Logger

	created int
	updated int
	failed  int
	deleted int64
	errs    errorList
}

func newRunState(run *syncdomain.SyncRun, runs syncdomain.SyncRunRepository, progress ProgressSink, logger *zap.Logger) *runState {
	return &runState{run: run, runs: runs, progress: progress, logger: logger}
}

// noteOutcome folds one reconciliation outcome into the run counters
func (s *runState) noteOutcome(shop string, page int, operation string, out Outcome) {
	s.created += out.Created
	s.updated += out.Updated
	s.failed += out.Failed
	for _, err := range out.Errors {
		s.errs.add(shop, page, operation, err)
	}
}

// noteError records one error that failed an operation outright
func (s *runState) noteError(shop string, page int, operation string, err error) {
	s.errs.add(shop, page, operation, err)
	s.logger.Warn("sync operation failed",
		zap.String("family", string(s.run.EntityFamily)),
		zap.String("shop", shop),
		zap.Int("page", page),
		zap.String("operation", operation),
		zap.Error(err))
}

// persist flushes the rolling counters to the run record and the progress
// sink. Persistence failures here are logged, never fatal.
func (s *runState) persist(ctx context.Context) {
	s.run.RecordProgress(s.created, s.updated, s.failed)
	if err := s.runs.Save(ctx, s.run); err != nil {
		s.logger.Warn("failed to persist run progress", zap.Error(err))
	}
	if s.progress != nil {
		family := string(s.run.EntityFamily)
		if err := s.progress.PublishProgress(ctx, family, s.created, s.updated, s.failed, s.errs.total); err != nil {
			s.logger.Debug("failed to publish run progress", zap.Error(err))
		}
	}
}

// summary produces the final accounting of the run
func (s *runState) summary() Summary {
	return Summary{
		Family:  s.run.EntityFamily,
		RunID:   s.run.ID.String(),
		Created: s.created,
		Updated: s.updated,
		Failed:  s.failed,
		Deleted: s.deleted,
		Errors:  s.errs.total,
		Success: s.errs.total == 0,
	}
}

// forEachPage drives paginated fetching for one tenant. The total page
// count is unknown until the first page succeeds; a first-page failure
// aborts the tenant, later page failures are reported through onError and
// the loop moves on. Context cancellation stops the loop immediately.
func forEachPage[T any](
	ctx context.Context,
	pause time.Duration,
	fetch func(ctx context.Context, page int) (*pancake.Page[T], error),
	handle func(page *pancake.Page[T]) error,
	onError func(page int, err error),
) error {
	totalPages := 1
	for page := 1; page <= totalPages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := fetch(ctx, page)
		if err != nil {
			if page == 1 {
				return fmt.Errorf("first page fetch failed: %w", err)
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			onError(page, err)
			continue
		}
		if result.TotalPages > 0 {
			totalPages = result.TotalPages
		}

		if err := handle(result); err != nil {
			onError(page, err)
		}

		if pause > 0 && page < totalPages {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return nil
}

// Scope narrows one run: the incremental update window, and a single shop
// by remote id when set. The zero value means a full pass over every shop.
type Scope struct {
	Window *pancake.TimeWindow
	ShopID string
}

// scopedShops resolves the shop set a run covers: every mirrored shop, or
// just the one the scope names
func scopedShops(ctx context.Context, shops catalog.ShopRepository, scope Scope) ([]catalog.Shop, error) {
	if scope.ShopID == "" {
		return shops.FindAll(ctx)
	}
	shop, err := shops.FindByPancakeID(ctx, scope.ShopID)
	if err != nil {
		return nil, err
	}
	return []catalog.Shop{*shop}, nil
}

// Pipeline is one entity-family synchronization flow. A pipeline walks
// every shop the scope covers, converges local state against the remote
// listing and reports its counters through the shared run state.
type Pipeline interface {
	Family() syncdomain.EntityFamily
	Run(ctx context.Context, state *runState, scope Scope) error
}
