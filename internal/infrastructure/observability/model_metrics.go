package observability

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type modelMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

var (
	modelMetricsOnce sync.Once
	modelMetricsInst *modelMetrics
)

// ensureModelMetrics creates the instruments on first use.
func ensureModelMetrics() *modelMetrics {
	modelMetricsOnce.Do(func() {
		meter := otel.Meter(instrumentationName + "/model")

		requestCount, err := meter.Int64Counter(
			"ai.model.request.count",
			metric.WithDescription("Number of generative model requests"),
		)
		if err != nil {
			log.Warn().Err(err).Msg("model request counter unavailable")
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.model.request.duration",
			metric.WithDescription("Generative model request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.model.request.errors",
			metric.WithDescription("Number of failed generative model requests"),
		)
		if err != nil {
			return
		}
		rateLimitWait, err := meter.Float64Histogram(
			"ai.model.rate_limit.wait",
			metric.WithDescription("Time spent waiting for the model rate limiter in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}

		modelMetricsInst = &modelMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
			rateLimitWait:   rateLimitWait,
		}
	})
	return modelMetricsInst
}

func modelAttrs(provider, model string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("ai.provider", provider),
		attribute.String("ai.model", model),
	}
}

// RecordModelCall records one request to a generative model service.
func RecordModelCall(ctx context.Context, provider, model string, statusCode int, duration time.Duration, err error) {
	m := ensureModelMetrics()
	if m == nil {
		return
	}

	attrs := modelAttrs(provider, model)
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	m.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordRateLimitWait records time spent blocked on a client-side rate limiter.
func RecordRateLimitWait(ctx context.Context, provider, model string, wait time.Duration) {
	m := ensureModelMetrics()
	if m == nil {
		return
	}
	m.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(modelAttrs(provider, model)...))
}
