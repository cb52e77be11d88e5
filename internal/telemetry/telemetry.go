// Package telemetry configures OpenTelemetry tracing and metrics for the
// command-line tool. Exporters are off unless selected through configuration.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans and instruments from this module.
const InstrumentationName = "gitlab.com/yelinaung/gambling-tax"

// Exporter names, matching the OTEL_*_EXPORTER conventions.
const (
	ExporterNone    = "none"
	ExporterConsole = "console"
	ExporterOTLP    = "otlp"
)

// OTLP protocols, matching OTEL_EXPORTER_OTLP_PROTOCOL.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"
)

// ErrUnknownExporter is returned for an exporter or protocol name Setup does
// not recognize.
var ErrUnknownExporter = errors.New("unknown telemetry exporter")

// Options selects the exporters.
type Options struct {
	ServiceName     string
	ServiceVersion  string
	TracesExporter  string
	MetricsExporter string
	Protocol        string
	// Writer receives console exporter output. Defaults to stderr.
	Writer io.Writer
}

// Shutdown flushes and stops the providers installed by Setup.
type Shutdown func(context.Context) error

// Setup installs global tracer and meter providers for the selected
// exporters. With both exporters off it installs nothing and the
// OpenTelemetry no-op providers stay in place.
func Setup(ctx context.Context, opts Options) (Shutdown, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", opts.ServiceName),
		attribute.String("service.version", opts.ServiceVersion),
	)

	var shutdowns []Shutdown
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	spanExporter, err := newSpanExporter(ctx, opts)
	if err != nil {
		return nil, err
	}
	if spanExporter != nil {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spanExporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	metricExporter, err := newMetricExporter(ctx, opts)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	if metricExporter != nil {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	return shutdown, nil
}

func newSpanExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.TracesExporter {
	case "", ExporterNone:
		return nil, nil
	case ExporterConsole:
		return stdouttrace.New(stdouttrace.WithWriter(opts.Writer))
	case ExporterOTLP:
		switch opts.Protocol {
		case "", ProtocolHTTP:
			return otlptracehttp.New(ctx)
		case ProtocolGRPC:
			return otlptracegrpc.New(ctx)
		}
		return nil, fmt.Errorf("%w: protocol %q", ErrUnknownExporter, opts.Protocol)
	}
	return nil, fmt.Errorf("%w: traces %q", ErrUnknownExporter, opts.TracesExporter)
}

func newMetricExporter(ctx context.Context, opts Options) (sdkmetric.Exporter, error) {
	switch opts.MetricsExporter {
	case "", ExporterNone:
		return nil, nil
	case ExporterConsole:
		return stdoutmetric.New(stdoutmetric.WithWriter(opts.Writer))
	case ExporterOTLP:
		switch opts.Protocol {
		case "", ProtocolHTTP:
			return otlpmetrichttp.New(ctx)
		case ProtocolGRPC:
			return otlpmetricgrpc.New(ctx)
		}
		return nil, fmt.Errorf("%w: protocol %q", ErrUnknownExporter, opts.Protocol)
	}
	return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, opts.MetricsExporter)
}

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
