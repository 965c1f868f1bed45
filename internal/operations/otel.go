package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pricepulse/internal/infrastructure"
)

const (
	TracerName = "pricepulse.operation"
)

// OperationTracer provides OpenTelemetry instrumentation for operations.
// A nil metrics value records spans only.
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a new operation tracer
func NewOperationTracer(metrics *infrastructure.PipelineMetrics) *OperationTracer {
	return &OperationTracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}
}

// TraceOperationExecution creates a span for the entire operation execution
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, operationID string, stepCount int) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.Int("operation.step_count", stepCount),
		),
	)
}

// TraceStepExecution creates a span for one step
func (pt *OperationTracer) TraceStepExecution(ctx context.Context, operationID string, step Step) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, fmt.Sprintf("operation.step.%s", step.ID()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
}

// RecordStepCompletion records step metrics and closes out the span status
func (pt *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	success := err == nil
	infrastructure.RecordStepMetrics(ctx, pt.metrics, stepID, duration, success)

	span.SetAttributes(
		attribute.Bool("step.success", success),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
	)
	if success {
		span.SetStatus(codes.Ok, "step completed")
		return
	}

	span.RecordError(err, trace.WithAttributes(
		attribute.String("error.type", string(GetErrorType(err))),
	))
	span.SetStatus(codes.Error, err.Error())
}

// RecordOperationCompletion records run metrics and the span status
func (pt *OperationTracer) RecordOperationCompletion(ctx context.Context, span trace.Span, succeeded, total int) {
	infrastructure.RecordRunMetrics(ctx, pt.metrics, succeeded, total)

	span.SetAttributes(
		attribute.Int("operation.succeeded", succeeded),
		attribute.Int("operation.total", total),
	)
	if succeeded == total {
		span.SetStatus(codes.Ok, "all steps succeeded")
	} else {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d steps failed", total-succeeded, total))
	}
}
