package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrVersion = "version"
	attrEnv     = "env"
	attrMode    = "mode"
)

// ServiceInfo identifies the process in every log record.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
	Mode        AppMode
}

func (s ServiceInfo) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String(attrService, s.Name),
		slog.String(attrMode, string(s.Mode)),
	}

	if s.Version != "" {
		attrs = append(attrs, slog.String(attrVersion, s.Version))
	}

	if s.Environment != "" {
		attrs = append(attrs, slog.String(attrEnv, s.Environment))
	}

	return attrs
}

// TracingHandler is an [slog.Handler] that adds the active span's trace_id and
// span_id to every record. Service attributes are attached once, at the top
// level, so they survive WithGroup.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner with trace context injection and service metadata.
func NewTracingHandler(inner slog.Handler, service ServiceInfo) *TracingHandler {
	return &TracingHandler{inner: inner.WithAttrs(service.attrs())}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds trace context attributes from the span context, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	err := th.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
