// Package trace holds the process-wide OpenTelemetry tracer. Spans cover
// broker operations and every HTTP round trip to the brokerage.
package trace

import (
	"context"
	"io"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName    = "sbisec-trading-bot"
	serviceVersion = "0.5.2"
)

type Config struct {
	Enabled bool
	// Output receives exported spans. Defaults to stderr so spans never
	// interleave with reports on stdout.
	Output io.Writer
	Pretty bool
}

var (
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	enabled  bool
)

// Init enables tracing when LOG_TRACING_ENABLED=true.
func Init() error {
	return InitWithConfig(Config{
		Enabled: os.Getenv("LOG_TRACING_ENABLED") == "true",
		Pretty:  os.Getenv("LOG_TRACING_COMPACT") != "true",
	})
}

func InitWithConfig(cfg Config) error {
	enabled = false
	if !cfg.Enabled {
		return nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	exporterOpts := []stdouttrace.Option{stdouttrace.WithWriter(out)}
	if cfg.Pretty {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	tracer = provider.Tracer(serviceName)
	enabled = true
	return nil
}

// Shutdown flushes pending spans.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	provider = nil
	enabled = false
	return err
}

func Enabled() bool {
	return enabled
}

// StartSpan starts a child span. With tracing off the context is returned
// unchanged together with whatever span it already carries.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// StartRequestSpan starts a client span for one request to the brokerage.
func StartRequestSpan(ctx context.Context, method, url string) (context.Context, trace.Span) {
	return StartSpan(ctx, "http "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", url),
		),
	)
}

// EndRequestSpan records the response status on the span started by
// StartRequestSpan and ends it. A zero status means no response arrived.
func EndRequestSpan(ctx context.Context, status int, err error) {
	if !enabled {
		return
	}
	span := trace.SpanFromContext(ctx)
	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case status >= 400:
		span.SetStatus(codes.Error, "http status "+strconv.Itoa(status))
	}
	span.End()
}

// RecordError marks the span in ctx as failed.
func RecordError(ctx context.Context, err error) {
	if !enabled || err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// IDs returns the trace and span id carried by ctx, for log correlation.
func IDs(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}
