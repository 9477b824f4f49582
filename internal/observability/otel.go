package observability

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/SAP-F-2025/prep-service/internal/config"
)

// TracerName is the instrumentation scope of this service's spans
const TracerName = "github.com/SAP-F-2025/prep-service"

// Tracer returns the service tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// InitOTel installs a global tracer provider. When tracing is disabled the
// global no-op provider stays in place and the returned shutdown does nothing.
func InitOTel(ctx context.Context, logger *slog.Logger, cfg config.OTelConfig, environment string) func(context.Context) error {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "prep-service"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("deployment.environment", environment),
		),
	)
	if err != nil {
		logger.Warn("otel resource init failed (continuing)", "error", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	}

	exporter, err := buildTraceExporter(ctx, logger, cfg)
	if err != nil {
		logger.Warn("otel exporter init failed (continuing)", "error", err)
	} else {
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("otel tracing initialized", "service", serviceName, "endpoint", cfg.Endpoint)
	return tp.Shutdown
}

func buildTraceExporter(ctx context.Context, logger *slog.Logger, cfg config.OTelConfig) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}

	logger.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}
