// Package observability installs the process-wide OpenTelemetry tracer
// provider. Spans from otelgin, the gorm tracing plugin, and the service
// layer all flow through it to an OTLP/gRPC collector.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"

	"github.com/tbourn/dealership-backend/internal/config"
)

// Seams replaced in tests.
var (
	newClient = otlptracegrpc.NewClient

	newExporter = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newResource = func(ctx context.Context, attrs ...attribute.KeyValue) (*resource.Resource, error) {
		return resource.New(ctx, resource.WithAttributes(attrs...))
	}
)

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// Deployment describes what this process runs with. It is attached to the
// trace resource so spans can be split by backend in the collector.
type Deployment struct {
	Version        string
	StoreBackend   string
	NotifyProvider string
}

// SetupOTel installs a batching OTLP tracer provider when tracing is enabled.
// When disabled it returns a no-op Shutdown and leaves the globals alone.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, d Deployment) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newExporter(ctx, newClient(opts...))
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, resourceAttrs(cfg.ServiceName, d)...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func resourceAttrs(service string, d Deployment) []attribute.KeyValue {
	attrs := []attribute.KeyValue{semconv.ServiceName(service)}
	if d.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(d.Version))
	}
	if d.StoreBackend != "" {
		attrs = append(attrs, attribute.String("dealership.store.backend", d.StoreBackend))
	}
	if d.NotifyProvider != "" {
		attrs = append(attrs, attribute.String("dealership.notify.provider", d.NotifyProvider))
	}
	return attrs
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
