package hydrator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func startHydratorSpan(ctx context.Context, name string, identifiers, references int) (context.Context, trace.Span) {
	tracer := otel.Tracer("document-hydrator/hydrator")
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.Int("hydrator.identifiers", identifiers),
		attribute.Int("hydrator.references", references),
	)
	return ctx, span
}

func finishHydratorSpan(span trace.Span, err error, outcome string) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.String("hydrator.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
