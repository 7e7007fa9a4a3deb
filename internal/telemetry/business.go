package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ForecastOutcome is the subset of a forecast recorded on its span.
type ForecastOutcome struct {
	PredictedRate float64
	Confidence    int
	Trend         string
	DataPoints    int
	Slope         float64
}

// BusinessTracer traces domain operations such as forecasts and seeding.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer creates a tracer bound to the global provider at call time.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: Tracer()}
}

// NewBusinessTracerWith uses the given tracer.
func NewBusinessTracerWith(tracer trace.Tracer) *BusinessTracer {
	return &BusinessTracer{tracer: tracer}
}

// TraceForecast starts a span for one bank/tenure forecast.
func (bt *BusinessTracer) TraceForecast(ctx context.Context, bankName string, tenureMonths int) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "forecast.predict", trace.WithAttributes(
		attribute.String("fd.bank_name", bankName),
		attribute.Int("fd.tenure_months", tenureMonths),
	))
}

// RecordForecastResult adds the outcome to the span.
func (bt *BusinessTracer) RecordForecastResult(span trace.Span, outcome ForecastOutcome) {
	span.SetAttributes(
		attribute.Float64("forecast.predicted_rate", outcome.PredictedRate),
		attribute.Int("forecast.confidence", outcome.Confidence),
		attribute.String("forecast.trend", outcome.Trend),
		attribute.Int("forecast.data_points", outcome.DataPoints),
		attribute.Float64("forecast.slope", outcome.Slope),
	)
}

// TraceSeed starts a span for a sample data load.
func (bt *BusinessTracer) TraceSeed(ctx context.Context) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "rates.seed")
}

// RecordError marks the span failed.
func (bt *BusinessTracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
