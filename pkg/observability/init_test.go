package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/linetrend/pkg/observability"
)

func TestInit_NoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)

	ctx, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()

	assert.False(t, span.SpanContext().IsValid(), "no-op tracer records nothing")
	assert.NotNil(t, ctx)

	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()), "shutdown is repeatable")
}

func TestInit_LoggerWritesToConfiguredOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = "1.2.3"
	cfg.LogJSON = true
	cfg.LogLevel = slog.LevelInfo
	cfg.LogOutput = &buf

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	providers.Logger.DebugContext(context.Background(), "hidden")
	providers.Logger.InfoContext(context.Background(), "visible", "commits", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "visible", record["msg"])
	assert.Equal(t, "linetrend", record["service"])
	assert.Equal(t, "1.2.3", record["version"])
	assert.Equal(t, "cli", record["mode"])
	assert.InDelta(t, 3, record["commits"], 0)
}

func TestInit_TextLoggerByDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogOutput = &buf

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	providers.Logger.WarnContext(context.Background(), "careful")

	assert.Contains(t, buf.String(), "msg=careful")
	assert.Contains(t, buf.String(), "service=linetrend")
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", nil},
		{"single", "key=value", map[string]string{"key": "value"}},
		{"multiple", "k1=v1,k2=v2", map[string]string{"k1": "v1", "k2": "v2"}},
		{"spaces", " k1 = v1 , k2 = v2 ", map[string]string{"k1": "v1", "k2": "v2"}},
		{"no_equals", "invalid", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.input))
		})
	}
}

func TestBuildResource_IncludesAppMode(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Mode = observability.ModeTest

	res, err := observability.ProbeBuildResource(cfg)
	require.NoError(t, err)

	found := false

	for _, attr := range res.Attributes() {
		if string(attr.Key) == "app.mode" {
			assert.Equal(t, "test", attr.Value.AsString())

			found = true
		}
	}

	assert.True(t, found, "app.mode attribute not found in resource")
}

func TestSampler_FromEnvironment(t *testing.T) {
	tests := []struct {
		sampler string
		arg     string
		want    bool
	}{
		{"always_on", "", true},
		{"always_off", "", false},
		{"traceidratio", "1.0", true},
		{"traceidratio", "0", false},
		{"parentbased_always_on", "", true},
		{"parentbased_always_off", "", false},
		{"unknown", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.sampler+"/"+tt.arg, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLER", tt.sampler)
			t.Setenv("OTEL_TRACES_SAMPLER_ARG", tt.arg)

			assert.Equal(t, tt.want, observability.ProbeSamplerSpan(observability.DefaultConfig()))
		})
	}
}

func TestSampler_ConfigRatio(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	cfg.SampleRatio = 1.0
	assert.True(t, observability.ProbeSamplerSpan(cfg))

	assert.True(t, observability.ProbeSamplerSpan(observability.DefaultConfig()), "zero ratio samples everything")
}
