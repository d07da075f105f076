package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by the loader, the registry and the CLI
const (
	SkillsCountKey = attribute.Key("skills.count")
	SourceDirKey   = attribute.Key("skills.source_dir")
	SkillIDKey     = attribute.Key("skill.id")
)

// Tracer returns a tracer from the current global provider. An empty name
// means DefaultServiceName.
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = DefaultServiceName
	}
	return otel.GetTracerProvider().Tracer(name)
}

// WithSpan runs f in a child span named name, marking the span failed when f
// returns an error.
func WithSpan(ctx context.Context, name string, f func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := Tracer("").Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	if err := f(ctx); err != nil {
		RecordError(ctx, err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// SetAttributes annotates the span in ctx
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// RecordError records err on the span in ctx and marks it failed
func RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}
