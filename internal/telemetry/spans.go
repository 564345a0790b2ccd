package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "zaplinker"

// StartRedirectSpan opens the span around resolving one short link visit
func StartRedirectSpan(ctx context.Context, customURL string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "redirect.resolve",
		trace.WithAttributes(attribute.String("link.custom_url", customURL)),
	)
}

// StartAnalyticsSpan opens the span around one write-behind analytics job
func StartAnalyticsSpan(ctx context.Context, workspaceID, numberID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("workspace.id", workspaceID)}
	if numberID != "" {
		attrs = append(attrs, attribute.String("number.id", numberID))
	}
	return otel.Tracer(tracerName).Start(ctx, "analytics.record",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err on span, when set, and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
