// Package telemetry installs the OpenTelemetry tracer provider of the
// wikiassets command.
package telemetry

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Environment variables read by Setup.
const (
	EnvEndpoint = "WIKIASSETS_OTEL_ENDPOINT"
	EnvEnabled  = "WIKIASSETS_OTEL_ENABLED"
)

// Setup initialises tracing for serviceName.
//
// Tracing is opt-in: without WIKIASSETS_OTEL_ENDPOINT, or with
// WIKIASSETS_OTEL_ENABLED set to "false", Setup registers nothing and
// returns a no-op shutdown function. The shutdown function flushes pending
// spans and should be deferred by the caller.
func Setup(ctx context.Context, serviceName, serviceVersion string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if strings.EqualFold(os.Getenv(EnvEnabled), "false") {
		return noop, nil
	}
	endpoint := os.Getenv(EnvEndpoint)
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, err
	}

	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(serviceName))}
	if serviceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(serviceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
