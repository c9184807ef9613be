package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestJobMetricsSplitsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	jobs := NewJobMetrics(reg)
	jobs.ObserveDuration("session-sweep", 40*time.Millisecond)
	jobs.IncSuccess("session-sweep")
	jobs.IncSuccess("session-sweep")
	jobs.IncFailure("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "scheduled_job_runs_total")
	if mf == nil {
		t.Fatal("runs counter not exported")
	}
	var success, failure float64
	for _, metric := range mf.GetMetric() {
		switch {
		case matchesLabel(metric.GetLabel(), "outcome", "success") && matchesLabel(metric.GetLabel(), "job", "session-sweep"):
			success = metric.GetCounter().GetValue()
		case matchesLabel(metric.GetLabel(), "outcome", "failure") && matchesLabel(metric.GetLabel(), "job", "unknown"):
			failure = metric.GetCounter().GetValue()
		}
	}
	if success != 2 || failure != 1 {
		t.Fatalf("expected success=2 failure=1, got %f %f", success, failure)
	}
	if got, err := fetchHistogramSum(mfs, "scheduled_job_duration_seconds", "job", "session-sweep"); err != nil || got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f (%v)", got, err)
	}
}
