// Package telemetry sets up OpenTelemetry tracing for skill loading, snapshot
// generation and the HTTP API. With tracing disabled every helper here is a
// no-op against the default global provider.
package telemetry

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// DefaultServiceName is reported when Config.ServiceName is empty
const DefaultServiceName = "skillskit"

// Sampler names accepted in Config.SamplerType
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
)

// Config selects whether and how spans are exported
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// Endpoint overrides OTEL_EXPORTER_OTLP_ENDPOINT, e.g. http://localhost:4318
	Endpoint string
	// SamplerType is always, never or ratio. Empty means always.
	SamplerType string
	// SamplerRatio is the fraction of root spans kept by the ratio sampler
	SamplerRatio float64
}

// Validate rejects unknown samplers and ratios outside [0, 1]
func (c Config) Validate() error {
	switch c.SamplerType {
	case "", SamplerAlways, SamplerNever:
		return nil
	case SamplerRatio:
		if c.SamplerRatio < 0 || c.SamplerRatio > 1 {
			return errors.Errorf("sampler ratio must be between 0 and 1, got %g", c.SamplerRatio)
		}
		return nil
	default:
		return errors.Errorf("unknown sampler %q, expected always, never or ratio", c.SamplerType)
	}
}

func (c Config) sampler() sdktrace.Sampler {
	switch c.SamplerType {
	case SamplerNever:
		return sdktrace.NeverSample()
	case SamplerRatio:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SamplerRatio))
	default:
		return sdktrace.AlwaysSample()
	}
}

// InitTracer installs a global provider exporting over OTLP/HTTP and returns
// the function that flushes it. When tracing is disabled nothing is installed
// and the returned function does nothing.
func InitTracer(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resource")
	}

	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trace exporter")
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithMaxExportBatchSize(512),
			sdktrace.WithBatchTimeout(time.Second),
		),
		sdktrace.WithSampler(cfg.sampler()),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// provider first so pending spans are flushed into the exporter
	return func(ctx context.Context) error {
		var result *multierror.Error
		if err := provider.Shutdown(ctx); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "failed to shut down tracer provider"))
		}
		if err := exporter.Shutdown(ctx); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "failed to shut down trace exporter"))
		}
		return result.ErrorOrNil()
	}, nil
}
