package sqlresolver

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func startFetchSpan(ctx context.Context, source Source, identifiers int) (context.Context, trace.Span) {
	tracer := otel.Tracer("document-hydrator/sqlresolver")
	ctx, span := tracer.Start(ctx, "sqlresolver.fetch", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("hydrator.source", source.Name),
		attribute.String("db.sql.table", source.Table),
		attribute.Int("hydrator.identifiers", identifiers),
	)
	return ctx, span
}

func finishFetchSpan(span trace.Span, err error, rows int) {
	span.SetAttributes(attribute.Int("db.rows", rows))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
