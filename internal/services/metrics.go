package services

import (
	"sync"
	"sync/atomic"
)

// PipelineMetrics holds failure counters per error kind plus throughput
// counts, exported through the /metrics endpoint. Webhook failures are not
// visible to the tracker, so these counters are the operational signal.
type PipelineMetrics struct {
	EventsProcessed   atomic.Int64
	EventsRejected    atomic.Int64 // malformed inbound payloads
	FetchFailures     atomic.Int64 // tracker unreachable / auth failure
	ScorerFailures    atomic.Int64 // external risk engine degraded to fallback
	PersistFailures   atomic.Int64
	DependenciesBuilt atomic.Int64
}

// Snapshot returns current counter values keyed by metric name suffix.
func (m *PipelineMetrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"events_processed_total":   m.EventsProcessed.Load(),
		"events_rejected_total":    m.EventsRejected.Load(),
		"fetch_failures_total":     m.FetchFailures.Load(),
		"scorer_failures_total":    m.ScorerFailures.Load(),
		"persist_failures_total":   m.PersistFailures.Load(),
		"dependencies_built_total": m.DependenciesBuilt.Load(),
	}
}

var (
	globalMetrics *PipelineMetrics
	metricsOnce   sync.Once
)

// GetMetrics returns the global pipeline metrics instance.
func GetMetrics() *PipelineMetrics {
	metricsOnce.Do(func() {
		globalMetrics = &PipelineMetrics{}
	})
	return globalMetrics
}
