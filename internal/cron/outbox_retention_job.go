package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

const (
	defaultOutboxRetention = 30 * 24 * time.Hour
	defaultDLQRetention    = 90 * 24 * time.Hour
	defaultMinAttempts     = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type dlqPruner interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams configure the job that prunes delivered and exhausted outbox
// rows, and dead letters once nobody is going to replay them. Exhausted outbox rows already
// have a copy in the dead letter table. DLQ is optional.
type OutboxRetentionJobParams struct {
	Logger          *logger.Logger
	DB              txRunner
	Repository      outboxPruner
	DLQ             dlqPruner
	OutboxRetention time.Duration
	DLQRetention    time.Duration
	MinAttempts     int
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:            params.Logger,
		db:              params.DB,
		outbox:          params.Repository,
		dlq:             params.DLQ,
		outboxRetention: defaultOutboxRetention,
		dlqRetention:    defaultDLQRetention,
		minAttempts:     defaultMinAttempts,
		now:             time.Now,
	}
	if params.OutboxRetention > 0 {
		job.outboxRetention = params.OutboxRetention
	}
	if params.DLQRetention > 0 {
		job.dlqRetention = params.DLQRetention
	}
	if params.MinAttempts > 0 {
		job.minAttempts = params.MinAttempts
	}
	return job, nil
}

type outboxRetentionJob struct {
	logg            *logger.Logger
	db              txRunner
	outbox          outboxPruner
	dlq             dlqPruner
	outboxRetention time.Duration
	dlqRetention    time.Duration
	minAttempts     int
	now             func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	outboxCutoff := now.Add(-j.outboxRetention)
	dlqCutoff := now.Add(-j.dlqRetention)

	var outboxDeleted, dlqDeleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		if outboxDeleted, err = j.outbox.DeletePublishedBefore(ctx, tx, outboxCutoff, j.minAttempts); err != nil {
			return fmt.Errorf("prune outbox: %w", err)
		}
		if j.dlq == nil {
			return nil
		}
		if dlqDeleted, err = j.dlq.DeleteFailedBefore(ctx, tx, dlqCutoff); err != nil {
			return fmt.Errorf("prune dlq: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"outbox_cutoff":  outboxCutoff,
		"dlq_cutoff":     dlqCutoff,
		"min_attempts":   j.minAttempts,
		"outbox_deleted": outboxDeleted,
		"dlq_deleted":    dlqDeleted,
	}), "outbox retention cleanup complete")
	return nil
}
