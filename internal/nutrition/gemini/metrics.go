package gemini

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/nutriweek/nutriweek/internal/nutrition/gemini"

// generationMetrics records one observation per generateContent attempt,
// including attempts the breaker rejects without a network call.
type generationMetrics struct {
	callDuration metric.Float64Histogram
	callTotal    metric.Int64Counter
}

func newGenerationMetrics() (*generationMetrics, error) {
	meter := otel.Meter(meterName)

	callDuration, err := meter.Float64Histogram(
		"generation.call.duration",
		metric.WithDescription("Duration of generation API calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	callTotal, err := meter.Int64Counter(
		"generation.call.total",
		metric.WithDescription("Total number of generation API calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &generationMetrics{
		callDuration: callDuration,
		callTotal:    callTotal,
	}, nil
}

// record is nil-safe: a client whose instruments failed to initialize still
// generates, it just goes unmeasured.
func (m *generationMetrics) record(model string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("generation.provider", ProviderName),
		attribute.String("generation.model", model),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Background context: the request context may already be cancelled by
	// the time the observation lands.
	ctx := context.Background()
	m.callDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.callTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
