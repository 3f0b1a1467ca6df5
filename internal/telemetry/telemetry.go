// Package telemetry wires the repository layer's otel.Tracer spans to an
// actual OTLP exporter. Grounded on the teacher's
// internal/services/telemetry_service.go Initialize/initTraceProvider
// pattern (resource.New + an otlptracehttp exporter + sdktrace.TracerProvider,
// registered globally via otel.SetTracerProvider), trimmed to the single
// HTTP exporter the CLI's --otel-endpoint flag needs rather than the
// teacher's Jaeger/CloudShip/gRPC provider-selection switch.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const serviceName = "lacewing"

// Shutdown flushes and stops the tracer provider installed by Initialize.
type Shutdown func(context.Context) error

// noopShutdown is returned when no endpoint is configured, matching the
// global otel no-op TracerProvider that otel.Tracer falls back to.
func noopShutdown(context.Context) error { return nil }

// Initialize installs an OTLP/HTTP span exporter as the global
// TracerProvider when endpoint is non-empty; callers that never configure
// an endpoint keep running against otel's built-in no-op provider, so
// every otel.Tracer("...").Start call already sprinkled through
// internal/db/repositories stays a harmless no-op until --otel-endpoint is
// set.
func Initialize(ctx context.Context, endpoint string) (Shutdown, error) {
	if endpoint == "" {
		return noopShutdown, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build otel resource: %w", err)
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")),
	}
	if !strings.HasPrefix(endpoint, "https://") {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter for %s: %w", endpoint, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
