package observability

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracingConfig holds the configuration for tracing
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
	Endpoint    string `mapstructure:"endpoint"`
}

// Constants for span attribute keys
const (
	// RetrievalQueryAttributeKey is the attribute key for retrieval queries
	RetrievalQueryAttributeKey = attribute.Key("retrieval.query_length")

	// RetrievalHitsAttributeKey is the attribute key for retrieval hit counts
	RetrievalHitsAttributeKey = attribute.Key("retrieval.hits")

	// CallIDAttributeKey is the attribute key for telephony call IDs
	CallIDAttributeKey = attribute.Key("call.id")

	// CallEventAttributeKey is the attribute key for call event types
	CallEventAttributeKey = attribute.Key("call.event_type")
)

// InitTracing initializes OpenTelemetry tracing
func InitTracing(cfg TracingConfig) (func(), error) {
	if !cfg.Enabled {
		log.Println("Tracing is disabled")
		return func() {}, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "voicedesk"
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	ctx := context.Background()

	// Create OTLP exporter
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Create resource with service information
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create trace provider
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)

	// Set global trace provider
	otel.SetTracerProvider(tracerProvider)

	// Set global propagator
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	SetTracer(otel.Tracer(cfg.ServiceName))

	log.Printf("Tracing initialized with service name: %s, environment: %s", cfg.ServiceName, cfg.Environment)

	// Return a cleanup function
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}, nil
}

// Package level variables for tracing
var (
	globalTracer     trace.Tracer
	globalTracerInit bool
)

// SetTracer sets the global tracer
func SetTracer(t trace.Tracer) {
	globalTracer = t
	globalTracerInit = true
}

// GetTracer returns the global tracer
func GetTracer() trace.Tracer {
	if !globalTracerInit {
		return noop.NewTracerProvider().Tracer("")
	}
	return globalTracer
}

// StartSpan starts a new span with the given name
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, name)
}

// SetSpanStatus records the outcome of an operation on the current span
func SetSpanStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
