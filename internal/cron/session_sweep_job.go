package cron

import (
	"context"
	"fmt"

	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

// Sweeper drops in-memory per-session state that has been idle too long.
type Sweeper interface {
	Sweep() int
}

// NewSessionSweepJob evicts idle carts and checkout flows. It must run in the API process
// that owns the registries; evicted sessions reload their cart from Redis on next use.
func NewSessionSweepJob(logg *logger.Logger, sweepers map[string]Sweeper) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if len(sweepers) == 0 {
		return nil, fmt.Errorf("at least one sweeper required")
	}
	return &sessionSweepJob{logg: logg, sweepers: sweepers}, nil
}

type sessionSweepJob struct {
	logg     *logger.Logger
	sweepers map[string]Sweeper
}

func (j *sessionSweepJob) Name() string { return "session-sweep" }

func (j *sessionSweepJob) Run(ctx context.Context) error {
	evicted := make(map[string]any, len(j.sweepers))
	total := 0
	for name, sweeper := range j.sweepers {
		if sweeper == nil {
			continue
		}
		n := sweeper.Sweep()
		evicted[name] = n
		total += n
	}
	if total > 0 {
		j.logg.Info(j.logg.WithFields(ctx, evicted), "idle sessions evicted")
	}
	return nil
}
