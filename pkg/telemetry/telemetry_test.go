package telemetry

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_InvalidConfig(t *testing.T) {
	_, err := InitTracer(context.Background(), Config{Enabled: true, SamplerType: "sometimes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sampler")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"default", Config{}, ""},
		{"always", Config{SamplerType: SamplerAlways}, ""},
		{"never", Config{SamplerType: SamplerNever}, ""},
		{"ratio", Config{SamplerType: SamplerRatio, SamplerRatio: 0.25}, ""},
		{"ratio too high", Config{SamplerType: SamplerRatio, SamplerRatio: 1.5}, "between 0 and 1"},
		{"ratio negative", Config{SamplerType: SamplerRatio, SamplerRatio: -0.1}, "between 0 and 1"},
		{"unknown", Config{SamplerType: "sometimes"}, "unknown sampler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Config{SamplerType: SamplerAlways}.sampler().Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), Config{SamplerType: SamplerNever}.sampler().Description())
	assert.Contains(t, Config{SamplerType: SamplerRatio, SamplerRatio: 0.5}.sampler().Description(), "TraceIDRatioBased{0.5}")
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Config{}.sampler().Description())
}

func TestWithSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	err := WithSpan(context.Background(), "ok", func(ctx context.Context) error {
		SetAttributes(ctx, SkillsCountKey.Int(3))
		return nil
	})
	require.NoError(t, err)

	err = WithSpan(context.Background(), "fails", func(context.Context) error {
		return errors.New("boom")
	}, SourceDirKey.String("skills"))
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "ok", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), SkillsCountKey.Int(3))

	assert.Equal(t, "fails", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
	assert.Contains(t, spans[1].Attributes(), SourceDirKey.String("skills"))
}
