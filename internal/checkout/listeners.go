package checkout

import (
	"context"

	"github.com/heritageheaven/storefront-backend/pkg/enums"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
	"github.com/heritageheaven/storefront-backend/pkg/metrics"
)

// MetricsListener counts transitions and times submissions.
func MetricsListener(m *metrics.CheckoutMetrics) Listener {
	return func(t Transition) {
		m.ObserveTransition(t.From.String(), t.To.String())
		if t.From == enums.CheckoutStateSubmitting {
			m.ObserveSubmission(t.To.String(), t.Elapsed)
		}
	}
}

// LoggingListener writes one debug line per transition.
func LoggingListener(logg *logger.Logger) Listener {
	return func(t Transition) {
		ctx := logg.WithFields(context.Background(), map[string]any{
			"session_id": t.SessionID,
			"from":       t.From,
			"to":         t.To,
		})
		if t.Err != nil {
			logg.Warn(ctx, "checkout transition after error")
			return
		}
		logg.Debug(ctx, "checkout transition")
	}
}
