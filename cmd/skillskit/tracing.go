package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/skillskit/skillskit/pkg/telemetry"
	"github.com/skillskit/skillskit/pkg/version"
)

var (
	tracer = telemetry.Tracer("skillskit.cli")

	shutdownTracing = func(context.Context) error { return nil }
)

func tracingConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: version.Get().Version,
		Endpoint:       viper.GetString("tracing.endpoint"),
		SamplerType:    viper.GetString("tracing.sampler"),
		SamplerRatio:   viper.GetFloat64("tracing.ratio"),
	}
}

func initTracing(ctx context.Context) (func(context.Context) error, error) {
	return telemetry.InitTracer(ctx, tracingConfig())
}

// withTracing runs cmd inside a span named after its path. The span carries
// the skills root and every flag the user set explicitly.
func withTracing(cmd *cobra.Command) *cobra.Command {
	run := cmd.Run

	cmd.Run = func(cmd *cobra.Command, args []string) {
		attrs := []attribute.KeyValue{
			attribute.String("command.path", cmd.CommandPath()),
			attribute.StringSlice("command.args", args),
			telemetry.SourceDirKey.String(viper.GetString("skills_dir")),
		}
		cmd.Flags().Visit(func(f *pflag.Flag) {
			attrs = append(attrs, attribute.String("flag."+f.Name, f.Value.String()))
		})

		ctx, span := tracer.Start(cmd.Context(), "cli."+cmd.Name(), trace.WithAttributes(attrs...))
		defer span.End()

		cmd.SetContext(ctx)
		run(cmd, args)
	}

	return cmd
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Bool("tracing-enabled", false, "Export OpenTelemetry spans over OTLP/HTTP")
	flags.String("tracing-sampler", telemetry.SamplerRatio, "Sampler (always, never or ratio)")
	flags.Float64("tracing-ratio", 1, "Fraction of traces kept by the ratio sampler")
	flags.String("tracing-endpoint", "", "Collector URL, overriding OTEL_EXPORTER_OTLP_ENDPOINT")

	for key, flag := range map[string]string{
		"tracing.enabled":  "tracing-enabled",
		"tracing.sampler":  "tracing-sampler",
		"tracing.ratio":    "tracing-ratio",
		"tracing.endpoint": "tracing-endpoint",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}
