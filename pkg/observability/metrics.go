package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal      = "linetrend.runs"
	metricRunDuration    = "linetrend.run.duration"
	metricCommitsTotal   = "linetrend.commits"
	metricObjectsFetched = "linetrend.objects.fetched"
	metricBytesFetched   = "linetrend.objects.fetched.bytes"
	metricCacheLookups   = "linetrend.cache.lookups"
	metricPeakLines      = "linetrend.lines.peak"

	attrStatus = "status"
	attrResult = "result"

	// StatusOK marks a run that produced a series.
	StatusOK = "ok"
	// StatusError marks a failed run.
	StatusError = "error"
)

// durationBucketBoundaries covers 10ms to 600s, from a handful of commits to
// deep histories.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// RunStats holds the outcome of one collection run.
type RunStats struct {
	Status       string
	Duration     time.Duration
	Commits      int64
	CacheHits    int64
	CacheMisses  int64
	Fetches      int64
	FetchedBytes int64
	PeakLines    int64
}

// RunMetrics holds the OTel instruments describing collection runs.
type RunMetrics struct {
	runs         metric.Int64Counter
	duration     metric.Float64Histogram
	commits      metric.Int64Counter
	fetches      metric.Int64Counter
	fetchedBytes metric.Int64Counter
	lookups      metric.Int64Counter
	peakLines    metric.Int64Gauge
}

// NewRunMetrics creates run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	runs, err := mt.Int64Counter(metricRunsTotal,
		metric.WithDescription("Collection runs by status"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Collection run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	commits, err := mt.Int64Counter(metricCommitsTotal,
		metric.WithDescription("Commits evaluated"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitsTotal, err)
	}

	fetches, err := mt.Int64Counter(metricObjectsFetched,
		metric.WithDescription("Blob contents read from the object store"),
		metric.WithUnit("{object}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricObjectsFetched, err)
	}

	fetchedBytes, err := mt.Int64Counter(metricBytesFetched,
		metric.WithDescription("Bytes of blob content read from the object store"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBytesFetched, err)
	}

	lookups, err := mt.Int64Counter(metricCacheLookups,
		metric.WithDescription("Object metric cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheLookups, err)
	}

	peak, err := mt.Int64Gauge(metricPeakLines,
		metric.WithDescription("Largest line count in the last series"),
		metric.WithUnit("{line}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPeakLines, err)
	}

	return &RunMetrics{
		runs:         runs,
		duration:     duration,
		commits:      commits,
		fetches:      fetches,
		fetchedBytes: fetchedBytes,
		lookups:      lookups,
		peakLines:    peak,
	}, nil
}

// RecordRun records a completed run. Failed runs only count the run and its
// duration. Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if rm == nil {
		return
	}

	status := metric.WithAttributes(attribute.String(attrStatus, stats.Status))
	rm.runs.Add(ctx, 1, status)
	rm.duration.Record(ctx, stats.Duration.Seconds(), status)

	if stats.Status != StatusOK {
		return
	}

	rm.commits.Add(ctx, stats.Commits)
	rm.fetches.Add(ctx, stats.Fetches)
	rm.fetchedBytes.Add(ctx, stats.FetchedBytes)
	rm.lookups.Add(ctx, stats.CacheHits, metric.WithAttributes(attribute.String(attrResult, "hit")))
	rm.lookups.Add(ctx, stats.CacheMisses, metric.WithAttributes(attribute.String(attrResult, "miss")))
	rm.peakLines.Record(ctx, stats.PeakLines)
}
