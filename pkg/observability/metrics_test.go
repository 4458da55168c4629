package observability_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/linetrend/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.RunMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rm, err := observability.NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return rm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()

	m := findMetric(rm, name)
	require.NotNil(t, m, name)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, name)

	want := attribute.NewSet(attrs...)

	var total int64

	for _, dp := range sum.DataPoints {
		if len(attrs) == 0 || dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}

	return total
}

func TestRunMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	rm, reader := setupTestMeter(t)

	rm.RecordRun(context.Background(), observability.RunStats{
		Status:       observability.StatusOK,
		Duration:     1500 * time.Millisecond,
		Commits:      12,
		CacheHits:    30,
		CacheMisses:  10,
		Fetches:      9,
		FetchedBytes: 4096,
		PeakLines:    870,
	})

	data := collectMetrics(t, reader)

	assert.Equal(t, int64(1), sumValue(t, data, "linetrend.runs", attribute.String("status", "ok")))
	assert.Equal(t, int64(12), sumValue(t, data, "linetrend.commits"))
	assert.Equal(t, int64(9), sumValue(t, data, "linetrend.objects.fetched"))
	assert.Equal(t, int64(4096), sumValue(t, data, "linetrend.objects.fetched.bytes"))
	assert.Equal(t, int64(30), sumValue(t, data, "linetrend.cache.lookups", attribute.String("result", "hit")))
	assert.Equal(t, int64(10), sumValue(t, data, "linetrend.cache.lookups", attribute.String("result", "miss")))

	peak := findMetric(data, "linetrend.lines.peak")
	require.NotNil(t, peak)

	gauge, ok := peak.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(870), gauge.DataPoints[0].Value)

	hist := findMetric(data, "linetrend.run.duration")
	require.NotNil(t, hist)

	h, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.InDelta(t, 1.5, h.DataPoints[0].Sum, 1e-9)
}

func TestRunMetrics_FailedRunCountsOnlyRun(t *testing.T) {
	t.Parallel()

	rm, reader := setupTestMeter(t)

	rm.RecordRun(context.Background(), observability.RunStats{
		Status:   observability.StatusError,
		Duration: time.Second,
		Commits:  5,
	})

	data := collectMetrics(t, reader)

	assert.Equal(t, int64(1), sumValue(t, data, "linetrend.runs", attribute.String("status", "error")))
	if commits := findMetric(data, "linetrend.commits"); commits != nil {
		sum, ok := commits.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.Empty(t, sum.DataPoints)
	}
}

func TestRunMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var rm *observability.RunMetrics

	assert.NotPanics(t, func() {
		rm.RecordRun(context.Background(), observability.RunStats{Status: observability.StatusOK})
	})
}

func TestWriteMetricsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "linetrend.prom")

	err := observability.WriteMetricsFile(context.Background(), path, observability.RunStats{
		Status:    observability.StatusOK,
		Duration:  time.Second,
		Commits:   7,
		PeakLines: 100,
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "# TYPE linetrend_commits")
	assert.Contains(t, text, "linetrend_lines_peak")
	assert.Contains(t, text, `status="ok"`)
}

func TestWriteMetricsFile_BadPath(t *testing.T) {
	t.Parallel()

	err := observability.WriteMetricsFile(context.Background(), filepath.Join(t.TempDir(), "missing", "x.prom"), observability.RunStats{})
	assert.Error(t, err)
}
