package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/symptomchecker/backend"

const metricExportInterval = 15 * time.Second

// Metrics holds the instruments recorded by the HTTP layer, the history
// store and the session streams.
type Metrics struct {
	RequestCount    metric.Int64Counter
	RequestDuration metric.Float64Histogram
	DBQueryDuration metric.Float64Histogram
	CacheHitCount   metric.Int64Counter
	CacheMissCount  metric.Int64Counter

	SessionStreams         metric.Int64UpDownCounter
	SessionEventsDelivered metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing and metrics
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(metricExportInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		GetLogger().Warn().Err(err).Msg("runtime metrics not started")
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			meterProvider.Shutdown(ctx),
			tracerProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics creates the instruments on the global meter provider. Without
// Setup they are no-ops.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)
	var errs []error

	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		errs = append(errs, err)
		return c
	}
	millis := func(name, description string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(description), metric.WithUnit("ms"))
		errs = append(errs, err)
		return h
	}

	m := &Metrics{
		RequestCount:           counter("http.server.request.count", "Number of HTTP requests"),
		RequestDuration:        millis("http.server.request.duration", "HTTP request duration in milliseconds"),
		DBQueryDuration:        millis("db.query.duration", "Analysis history query duration in milliseconds"),
		CacheHitCount:          counter("cache.hit.count", "Number of cache hits"),
		CacheMissCount:         counter("cache.miss.count", "Number of cache misses"),
		SessionEventsDelivered: counter("session.events.delivered", "Medication session events written to streams"),
	}

	streams, err := meter.Int64UpDownCounter("session.streams.active",
		metric.WithDescription("Open medication session event streams"))
	errs = append(errs, err)
	m.SessionStreams = streams

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordDBMetric records a database operation metric
func RecordDBMetric(ctx context.Context, metrics *Metrics, operation string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.DBQueryDuration.Record(ctx, float64(duration.Milliseconds()),
		metric.WithAttributes(attribute.String("db.operation", operation)))
}

// RecordCacheHit records a cache hit
func RecordCacheHit(ctx context.Context, metrics *Metrics, prefix string) {
	if metrics == nil {
		return
	}
	metrics.CacheHitCount.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.prefix", prefix)))
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(ctx context.Context, metrics *Metrics, prefix string) {
	if metrics == nil {
		return
	}
	metrics.CacheMissCount.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.prefix", prefix)))
}

// RecordSessionStream adjusts the open stream gauge by delta.
func RecordSessionStream(ctx context.Context, metrics *Metrics, delta int64) {
	if metrics == nil {
		return
	}
	metrics.SessionStreams.Add(ctx, delta)
}

// RecordSessionEventDelivered counts one event written to a stream.
func RecordSessionEventDelivered(ctx context.Context, metrics *Metrics, eventType string) {
	if metrics == nil {
		return
	}
	metrics.SessionEventsDelivered.Add(ctx, 1, metric.WithAttributes(attribute.String("event.type", eventType)))
}
