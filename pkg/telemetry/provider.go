// Package telemetry wires OpenTelemetry tracing around adapter runs and
// the correlation stage, exporting spans via OTLP/gRPC in production or
// stdout for local development.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Config controls where spans are exported.
type Config struct {
	ServiceName string
	// Endpoint is an OTLP/gRPC collector address (e.g. "localhost:4317").
	// Empty falls back to a pretty-printed stdout exporter.
	Endpoint string
}

// Provider owns the process-wide tracer provider and its exporter.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// NewProvider builds a Provider and installs it as the global tracer
// provider. Spans batch and export via OTLP/gRPC when cfg.Endpoint is set,
// otherwise via stdout.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "miesc"
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	if cfg.Endpoint != "" {
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("telemetry: build otlp exporter for %s: %w", cfg.Endpoint, err)
		}
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("telemetry: build stdout exporter: %w", err)
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp, tracer: tp.Tracer("github.com/miesc-dev/miesc")}, nil
}

// Tracer returns the tracer spans should be started from. Safe to call on
// a nil Provider — returns the global no-op tracer, so callers can wire it
// unconditionally.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return otel.Tracer("noop")
	}
	return p.tracer
}

// Shutdown flushes pending spans and releases the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
