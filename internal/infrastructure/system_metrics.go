package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records a snapshot of the Go runtime at the end of a run
type RuntimeMetrics struct {
	goRoutines  metric.Int64Gauge
	heapAlloc   metric.Int64Gauge
	totalAlloc  metric.Int64Gauge
	gcCount     metric.Int64Gauge
	runDuration metric.Float64Gauge
}

// RuntimeStats is the snapshot Collect recorded
type RuntimeStats struct {
	GoRoutines  int64
	HeapAlloc   int64
	TotalAlloc  int64
	GCCount     uint32
	RunDuration time.Duration
}

// NewRuntimeMetrics creates the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"runtime_goroutines",
		metric.WithDescription("Goroutines alive when the run finished"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge(
		"runtime_heap_alloc_bytes",
		metric.WithDescription("Heap bytes in use when the run finished"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"runtime_total_alloc_bytes",
		metric.WithDescription("Heap bytes allocated over the run"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"runtime_gc_count",
		metric.WithDescription("Garbage collections over the run"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Gauge(
		"run_duration_seconds",
		metric.WithDescription("Wall time from startup to shutdown"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goRoutines:  goRoutines,
		heapAlloc:   heapAlloc,
		totalAlloc:  totalAlloc,
		gcCount:     gcCount,
		runDuration: runDuration,
	}, nil
}

// Collect reads the runtime counters and records them tagged with the
// command name. A nil receiver only reads.
func (rm *RuntimeMetrics) Collect(ctx context.Context, started time.Time, component string) *RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &RuntimeStats{
		GoRoutines:  int64(runtime.NumGoroutine()),
		HeapAlloc:   int64(memStats.HeapAlloc),
		TotalAlloc:  int64(memStats.TotalAlloc),
		GCCount:     memStats.NumGC,
		RunDuration: time.Since(started),
	}
	if rm == nil {
		return stats
	}

	attrs := metric.WithAttributes(attribute.String("component", component))
	rm.goRoutines.Record(ctx, stats.GoRoutines, attrs)
	rm.heapAlloc.Record(ctx, stats.HeapAlloc, attrs)
	rm.totalAlloc.Record(ctx, stats.TotalAlloc, attrs)
	rm.gcCount.Record(ctx, int64(stats.GCCount), attrs)
	rm.runDuration.Record(ctx, stats.RunDuration.Seconds(), attrs)
	return stats
}
