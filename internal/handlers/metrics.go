package handlers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/depflow/depflow/internal/services"
	"github.com/depflow/depflow/internal/store"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// MetricsHandler returns Prometheus-compatible text format metrics.
type MetricsHandler struct {
	store store.Store
}

func NewMetricsHandler(st store.Store) *MetricsHandler {
	return &MetricsHandler{store: st}
}

func (h *MetricsHandler) Metrics(c *gin.Context) {
	var b strings.Builder

	// -- Runtime metrics --
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeGauge(&b, "depflow_uptime_seconds", "Time since server start in seconds", float64(time.Since(startTime).Seconds()))
	writeGauge(&b, "depflow_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "depflow_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))
	writeGauge(&b, "depflow_memory_sys_bytes", "Total memory obtained from OS in bytes", float64(m.Sys))
	writeGauge(&b, "depflow_gc_runs_total", "Total number of GC runs", float64(m.NumGC))

	// -- Pipeline counters --
	for name, value := range services.GetMetrics().Snapshot() {
		writeGauge(&b, "depflow_pipeline_"+name, "Pipeline counter "+name, float64(value))
	}

	// -- Broadcast / queue metrics --
	writeGauge(&b, "depflow_ws_active_clients", "Number of active WebSocket connections", float64(services.GetHub().ClientCount()))

	taskQueue := services.GetTaskQueue()
	queueAsync := 0.0
	if taskQueue != nil && taskQueue.IsAsync() {
		queueAsync = 1.0
	}
	writeGauge(&b, "depflow_queue_async_enabled", "Whether async queue (Redis) is enabled (1=yes, 0=no)", queueAsync)

	// -- Dependency metrics --
	if stats, err := h.store.DependencyStats(); err == nil {
		writeGauge(&b, "depflow_dependencies_total", "Total number of dependency records", float64(stats.Total))
		writeGauge(&b, "depflow_dependencies_cross_art", "Number of cross-ART dependencies", float64(stats.CrossART))
		writeGauge(&b, "depflow_dependencies_high_risk", "Number of dependencies with risk score >= 70", float64(stats.HighRisk))
		writeGauge(&b, "depflow_dependencies_avg_risk", "Average risk score", stats.AverageRisk)
		for status, count := range stats.ByStatus {
			writeGauge(&b, "depflow_dependencies_status_"+strings.ReplaceAll(status, "-", "_"),
				"Number of dependencies with status "+status, float64(count))
		}
	}

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}
