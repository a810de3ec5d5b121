package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"food-ordering-api/models"
	"food-ordering-api/store"
)

// BacklogNotifier periodically tells drivers that prepared orders are waiting
type BacklogNotifier struct {
	store    *store.Store
	logger   *zap.Logger
	interval time.Duration
	now      Clock
}

func NewBacklogNotifier(st *store.Store, logger *zap.Logger, interval time.Duration, now Clock) *BacklogNotifier {
	return &BacklogNotifier{store: st, logger: logger.Named("backlog"), interval: interval, now: now}
}

// Run polls until ctx is cancelled. A failed poll is logged and retried on the next tick.
func (n *BacklogNotifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := n.Check(ctx); err != nil && ctx.Err() == nil {
				n.logger.Error("backlog check failed", zap.Error(err))
			}
		}
	}
}

// Check returns how many deliveries are waiting and notifies drivers when
// there is at least one.
func (n *BacklogNotifier) Check(ctx context.Context) (int, error) {
	pending, err := n.store.Deliveries.ListByState(ctx, models.DeliveryPending)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	oldest := n.now().Sub(pending[0].CreatedAt)
	n.logger.Info("deliveries waiting for a driver",
		zap.Int("pending", len(pending)),
		zap.Uint("oldest_order_id", pending[0].OrderID),
		zap.Duration("oldest_wait", oldest),
	)
	return len(pending), nil
}
