package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	timingMeterName = "timing.service"
)

type TimingMetrics struct {
	notificationsScheduled metric.Int64Counter
	notificationsDelayed   metric.Int64Counter
	notificationsSent      metric.Int64Counter
	predictionDuration     metric.Float64Histogram
	decisionConfidence     metric.Float64Histogram
}

func NewTimingMetrics() (*TimingMetrics, error) {
	meter := otel.Meter(timingMeterName)

	notificationsScheduled, err := meter.Int64Counter(
		"timing_notifications_scheduled_total",
		metric.WithDescription("Total number of scheduling requests by outcome"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	notificationsDelayed, err := meter.Int64Counter(
		"timing_notifications_delayed_total",
		metric.WithDescription("Total number of notifications pushed later by the delay arbiter"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	notificationsSent, err := meter.Int64Counter(
		"timing_notifications_sent_total",
		metric.WithDescription("Total number of notifications handed to the delivery transport"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	predictionDuration, err := meter.Float64Histogram(
		"timing_prediction_duration_seconds",
		metric.WithDescription("Time spent computing the optimal delivery time"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5,
		),
	)
	if err != nil {
		return nil, err
	}

	decisionConfidence, err := meter.Float64Histogram(
		"timing_decision_confidence",
		metric.WithDescription("Confidence attached to timing decisions"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(
			0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0,
		),
	)
	if err != nil {
		return nil, err
	}

	return &TimingMetrics{
		notificationsScheduled: notificationsScheduled,
		notificationsDelayed:   notificationsDelayed,
		notificationsSent:      notificationsSent,
		predictionDuration:     predictionDuration,
		decisionConfidence:     decisionConfidence,
	}, nil
}

func (m *TimingMetrics) RecordScheduled(ctx context.Context, urgency, outcome string) {
	if m == nil {
		return
	}
	m.notificationsScheduled.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("urgency", urgency),
			attribute.String("outcome", outcome),
		),
	)
}

func (m *TimingMetrics) RecordDelayed(ctx context.Context, urgency, reason string) {
	if m == nil {
		return
	}
	m.notificationsDelayed.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("urgency", urgency),
			attribute.String("reason", reason),
		),
	)
}

func (m *TimingMetrics) RecordSent(ctx context.Context, urgency string, delivered bool) {
	if m == nil {
		return
	}
	m.notificationsSent.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("urgency", urgency),
			attribute.Bool("delivered", delivered),
		),
	)
}

func (m *TimingMetrics) RecordPredictionDuration(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.predictionDuration.Record(ctx, seconds)
}

func (m *TimingMetrics) RecordConfidence(ctx context.Context, urgency string, confidence float64) {
	if m == nil {
		return
	}
	m.decisionConfidence.Record(ctx, confidence,
		metric.WithAttributes(attribute.String("urgency", urgency)),
	)
}
