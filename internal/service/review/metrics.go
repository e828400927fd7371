package review

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/review"

type metrics struct {
	transitions metric.Int64Counter
	exhausted   metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(meterName)

	transitions, _ := meter.Int64Counter(
		"review_transitions_total",
		metric.WithDescription("Assignment state transitions applied by the review engine"),
		metric.WithUnit("{transition}"),
	)
	exhausted, _ := meter.Int64Counter(
		"review_rework_exhausted_total",
		metric.WithDescription("Defect decisions rejected because the rework ceiling was reached"),
	)
	return &metrics{transitions: transitions, exhausted: exhausted}
}

func (m *metrics) transition(ctx context.Context, name string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("transition", name)))
}

func (m *metrics) reworkExhausted(ctx context.Context) {
	m.exhausted.Add(ctx, 1)
}
