package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pancake-sync/backend/internal/domain/crm"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/domain/trade"
)

// RunRetention is how long terminal runs are kept before the purge
const RunRetention = 30 * 24 * time.Hour

// Maintenance bundles the housekeeping passes that run outside the
// per-family pipelines: reattaching sentinel-held orders to their true
// customers, reclassifying runs abandoned by a crashed process and purging
// old run records.
type Maintenance struct {
	orders    trade.OrderRepository
	customers crm.CustomerRepository
	runs      syncdomain.SyncRunRepository
	logger    *zap.Logger
}

// NewMaintenance creates the maintenance service
func NewMaintenance(
	orders trade.OrderRepository,
	customers crm.CustomerRepository,
	runs syncdomain.SyncRunRepository,
	logger *zap.Logger,
) *Maintenance {
	return &Maintenance{orders: orders, customers: customers, runs: runs, logger: logger}
}

// ReassignAnonymousOrders walks the shop's sentinel-held orders carrying a
// recovery marker and reattaches each one whose true customer has since
// been mirrored. Returns how many orders were reassigned.
func (m *Maintenance) ReassignAnonymousOrders(ctx context.Context, shopID uuid.UUID) (int, error) {
	sentinel, err := m.customers.GetOrCreateAnonymous(ctx, shopID)
	if err != nil {
		return 0, err
	}

	annotated, err := m.orders.FindAnnotatedForCustomer(ctx, shopID, sentinel.ID)
	if err != nil {
		return 0, err
	}
	if len(annotated) == 0 {
		return 0, nil
	}

	missing := make([]string, 0, len(annotated))
	for i := range annotated {
		if id, ok := annotated[i].MissingCustomerID(); ok {
			missing = append(missing, id)
		}
	}

	resolved, err := m.customers.MapByPancakeID(ctx, shopID, missing)
	if err != nil {
		return 0, err
	}

	reassigned := 0
	for i := range annotated {
		order := &annotated[i]
		id, ok := order.MissingCustomerID()
		if !ok {
			continue
		}
		customer, ok := resolved[id]
		if !ok {
			continue
		}
		order.ReassignCustomer(customer.ID)
		if err := m.orders.Save(ctx, order); err != nil {
			m.logger.Warn("failed to reassign order",
				zap.String("order", order.PancakeID),
				zap.String("customer", id),
				zap.Error(err))
			continue
		}
		reassigned++
	}

	if reassigned > 0 {
		m.logger.Info("reassigned sentinel-held orders",
			zap.String("shop_id", shopID.String()),
			zap.Int("count", reassigned))
	}
	return reassigned, nil
}

// SweepStaleRuns reclassifies runs still marked running past the stale
// threshold as interrupted. Returns how many were touched.
func (m *Maintenance) SweepStaleRuns(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-syncdomain.StaleRunThreshold)
	n, err := m.runs.MarkStaleInterrupted(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Warn("reclassified stale runs as interrupted", zap.Int64("count", n))
	}
	return n, nil
}

// PurgeOldRuns removes terminal run records older than the retention window
func (m *Maintenance) PurgeOldRuns(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-RunRetention)
	n, err := m.runs.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Info("purged old sync runs", zap.Int64("count", n))
	}
	return n, nil
}
