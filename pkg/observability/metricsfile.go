package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsFile collects OTel instruments into a private Prometheus registry
// and writes them in the text exposition format, for the node exporter
// textfile collector.
type MetricsFile struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
}

// NewMetricsFile creates a MetricsFile with its own registry and meter provider.
func NewMetricsFile() (*MetricsFile, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &MetricsFile{
		registry: registry,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
	}, nil
}

// Meter returns the meter whose instruments end up in the file.
func (mf *MetricsFile) Meter() metric.Meter {
	return mf.provider.Meter(meterName)
}

// Write atomically replaces path with the current metric values.
func (mf *MetricsFile) Write(path string) error {
	err := prometheus.WriteToTextfile(path, mf.registry)
	if err != nil {
		return fmt.Errorf("write metrics file %s: %w", path, err)
	}

	return nil
}

// Shutdown releases the meter provider.
func (mf *MetricsFile) Shutdown(ctx context.Context) error {
	return mf.provider.Shutdown(ctx)
}

// WriteMetricsFile records stats into a fresh MetricsFile and writes it to path.
func WriteMetricsFile(ctx context.Context, path string, stats RunStats) error {
	mf, err := NewMetricsFile()
	if err != nil {
		return err
	}

	defer func() { _ = mf.Shutdown(ctx) }()

	rm, err := NewRunMetrics(mf.Meter())
	if err != nil {
		return err
	}

	rm.RecordRun(ctx, stats)

	return mf.Write(path)
}
