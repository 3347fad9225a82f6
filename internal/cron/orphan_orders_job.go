package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

const (
	defaultOrphanGrace     = 15 * time.Minute
	defaultOrphanBatchSize = 100
)

type orphanReconciler interface {
	ReconcileOrphans(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// OrphanOrdersJobParams configure the orphan order reconciliation.
type OrphanOrdersJobParams struct {
	Logger *logger.Logger
	Orders orphanReconciler
	// Grace is how old an item-less header must be before it is voided, so
	// checkouts still writing their line items are left alone.
	Grace     time.Duration
	BatchSize int
}

// NewOrphanOrdersJob builds the job that voids order headers whose line
// items were never recorded.
func NewOrphanOrdersJob(params OrphanOrdersJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultOrphanGrace
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultOrphanBatchSize
	}
	return &orphanOrdersJob{
		logg:   params.Logger,
		orders: params.Orders,
		grace:  grace,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type orphanOrdersJob struct {
	logg   *logger.Logger
	orders orphanReconciler
	grace  time.Duration
	batch  int
	now    func() time.Time
}

func (j *orphanOrdersJob) Name() string { return "orphan-orders" }

// Run drains orphans batch by batch. It stops early when a batch voids
// nothing, which also covers rows that keep failing.
func (j *orphanOrdersJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	total := 0
	for {
		voided, err := j.orders.ReconcileOrphans(ctx, cutoff, j.batch)
		total += voided
		if err != nil {
			return fmt.Errorf("reconcile orphan orders: %w", err)
		}
		if voided < j.batch || ctx.Err() != nil {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"orders_voided": total,
	})
	j.logg.Info(logCtx, "orphan order reconciliation complete")
	return nil
}
