package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "technews"

// Metrics holds all TechNews metric instruments.
type Metrics struct {
	CacheHits        metric.Int64Counter
	CacheMisses      metric.Int64Counter
	UpstreamCalls    metric.Int64Counter
	UpstreamErrors   metric.Int64Counter
	UpstreamDuration metric.Float64Histogram
	ImageFallbacks   metric.Int64Counter
	RateLimited      metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return newMetrics(otel.Meter(meterName))
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.CacheHits, err = meter.Int64Counter("technews.cache.hits",
		metric.WithDescription("Cache lookups served from cache"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("technews.cache.misses",
		metric.WithDescription("Cache lookups that fell through"))
	if err != nil {
		return nil, err
	}

	m.UpstreamCalls, err = meter.Int64Counter("technews.upstream.calls",
		metric.WithDescription("Requests sent to the news API"))
	if err != nil {
		return nil, err
	}

	m.UpstreamErrors, err = meter.Int64Counter("technews.upstream.errors",
		metric.WithDescription("Failed news API requests"))
	if err != nil {
		return nil, err
	}

	m.UpstreamDuration, err = meter.Float64Histogram("technews.upstream.duration_seconds",
		metric.WithDescription("News API request latency in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.ImageFallbacks, err = meter.Int64Counter("technews.image.fallbacks",
		metric.WithDescription("Image relay requests answered with the placeholder"))
	if err != nil {
		return nil, err
	}

	m.RateLimited, err = meter.Int64Counter("technews.ratelimit.rejected",
		metric.WithDescription("Requests rejected by the rate limiter"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
