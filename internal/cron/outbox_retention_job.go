package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

const (
	defaultEventRetention = 30 * 24 * time.Hour
	defaultDLQRetention   = 90 * 24 * time.Hour
	// retentionBatch keeps each DELETE short so the relay is never blocked
	// behind a long lock.
	retentionBatch = 500
)

type publishedEventPurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

type deadLetterPurger interface {
	DeleteFailedBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger           *logger.Logger
	Events           publishedEventPurger
	DeadLetters      deadLetterPurger
	RetentionDays    int
	DLQRetentionDays int
}

// NewOutboxRetentionJob builds the job that trims relayed order events and
// old dead letters. Pending events are never touched.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Events == nil {
		return nil, errors.New("outbox repository required")
	}
	return &outboxRetentionJob{
		logg:        params.Logger,
		events:      params.Events,
		deadLetters: params.DeadLetters,
		eventMaxAge: daysOr(params.RetentionDays, defaultEventRetention),
		dlqMaxAge:   daysOr(params.DLQRetentionDays, defaultDLQRetention),
		batch:       retentionBatch,
		now:         time.Now,
	}, nil
}

func daysOr(days int, fallback time.Duration) time.Duration {
	if days <= 0 {
		return fallback
	}
	return time.Duration(days) * 24 * time.Hour
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	events      publishedEventPurger
	deadLetters deadLetterPurger
	eventMaxAge time.Duration
	dlqMaxAge   time.Duration
	batch       int
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	events, err := drain(ctx, j.batch, func(limit int) (int64, error) {
		return j.events.DeletePublishedBefore(ctx, now.Add(-j.eventMaxAge), limit)
	})
	if err != nil {
		return fmt.Errorf("purge published events after %d rows: %w", events, err)
	}

	var dead int64
	if j.deadLetters != nil {
		dead, err = drain(ctx, j.batch, func(limit int) (int64, error) {
			return j.deadLetters.DeleteFailedBefore(ctx, now.Add(-j.dlqMaxAge), limit)
		})
		if err != nil {
			return fmt.Errorf("purge dead letters after %d rows: %w", dead, err)
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"events_deleted":       int(events),
		"dead_letters_deleted": int(dead),
	}), "outbox.retention_complete")
	return nil
}

// drain calls purge until a batch comes back short or ctx ends.
func drain(ctx context.Context, batch int, purge func(limit int) (int64, error)) (int64, error) {
	var total int64
	for ctx.Err() == nil {
		n, err := purge(batch)
		total += n
		if err != nil {
			return total, err
		}
		if n < int64(batch) {
			break
		}
	}
	return total, nil
}
