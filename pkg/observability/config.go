// Package observability provides OpenTelemetry tracing, run metrics and
// structured logging for linetrend.
package observability

import (
	"io"
	"log/slog"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is the command-line mode.
	ModeCLI AppMode = "cli"
	// ModeTest marks providers built by tests.
	ModeTest AppMode = "test"
)

const (
	defaultServiceName = "linetrend"

	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment, attached to logs when set.
	Environment string

	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	OTLPInsecure bool

	// SampleRatio is the root trace sampling ratio. Zero samples everything.
	SampleRatio float64

	LogLevel slog.Level
	LogJSON  bool

	// LogOutput receives log records. Nil means stderr.
	LogOutput io.Writer

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelWarn,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
