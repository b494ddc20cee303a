package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "technews"

// StartUpstreamSpan starts a span for a news API fetch on a cache miss.
func StartUpstreamSpan(ctx context.Context, operation, cacheKey string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "news.fetch",
		trace.WithAttributes(
			attribute.String("news.operation", operation),
			attribute.String("news.cache_key", cacheKey),
		),
	)
}

// StartImageSpan starts a span for an image relay fetch.
func StartImageSpan(ctx context.Context, host string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "image.fetch",
		trace.WithAttributes(attribute.String("image.host", host)),
	)
}

// StartMailSpan starts a span for a contact-form delivery.
func StartMailSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "contact.send")
}
