package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	cfotel "github.com/Strob0t/technews/internal/adapter/otel"
	"github.com/Strob0t/technews/internal/domain"
	"github.com/Strob0t/technews/internal/domain/article"
	"github.com/Strob0t/technews/internal/domain/query"
	"github.com/Strob0t/technews/internal/port/cache"
	"github.com/Strob0t/technews/internal/port/newsprovider"
)

// DefaultQueryTTL is how long a fetched result page is served from cache.
const DefaultQueryTTL = 5 * time.Minute

// NewsService answers validated news queries from the response cache,
// falling back to the upstream provider on a miss.
type NewsService struct {
	provider newsprovider.Provider
	cache    cache.Cache
	ttl      time.Duration
	metrics  *cfotel.Metrics
	group    singleflight.Group

	notConfigured sync.Once
}

// NewNewsService creates a NewsService. A non-positive ttl uses DefaultQueryTTL.
func NewNewsService(provider newsprovider.Provider, c cache.Cache, ttl time.Duration) *NewsService {
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}
	return &NewsService{provider: provider, cache: c, ttl: ttl}
}

// SetMetrics attaches metric instruments.
func (s *NewsService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Fetch returns the page for p. Within the TTL repeated calls for the same
// key are served from cache without contacting the provider; concurrent
// misses for one key share a single upstream call.
func (s *NewsService) Fetch(ctx context.Context, p query.Params) (article.Page, error) {
	key := p.Key()

	if page, ok := s.lookup(ctx, key); ok {
		return page, nil
	}

	// The shared call must not die with whichever caller happened to start it;
	// the provider enforces its own timeout.
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.fetchAndStore(context.WithoutCancel(ctx), key, p)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			s.notConfigured.Do(func() {
				slog.ErrorContext(ctx, "news api key is not configured; news requests will fail")
			})
		}
		return article.Page{}, err
	}
	if shared {
		slog.DebugContext(ctx, "shared in-flight upstream fetch", "key", key)
	}
	return v.(article.Page), nil
}

func (s *NewsService) lookup(ctx context.Context, key string) (article.Page, bool) {
	data, found, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "news cache read failed", "key", key, "error", err)
	}
	if !found || err != nil {
		s.countCache(ctx, false)
		return article.Page{}, false
	}

	var page article.Page
	if err := json.Unmarshal(data, &page); err != nil {
		slog.WarnContext(ctx, "discarding undecodable cache entry", "key", key, "error", err)
		_ = s.cache.Delete(ctx, key)
		s.countCache(ctx, false)
		return article.Page{}, false
	}
	s.countCache(ctx, true)
	return page, true
}

func (s *NewsService) fetchAndStore(ctx context.Context, key string, p query.Params) (article.Page, error) {
	ctx, span := cfotel.StartUpstreamSpan(ctx, string(p.Operation), key)
	defer span.End()

	start := time.Now()
	page, err := s.callProvider(ctx, p)
	s.recordUpstream(ctx, p.Operation, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream fetch failed")
		return article.Page{}, err
	}

	page.Articles = article.Dedupe(page.Articles)

	data, err := json.Marshal(page)
	if err != nil {
		return article.Page{}, fmt.Errorf("encode page: %w", err)
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		slog.WarnContext(ctx, "news cache write failed", "key", key, "error", err)
	}

	slog.InfoContext(ctx, "fetched news from upstream",
		"key", key,
		"articles", len(page.Articles),
		"total_results", page.TotalResults,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return page, nil
}

func (s *NewsService) callProvider(ctx context.Context, p query.Params) (article.Page, error) {
	switch p.Operation {
	case query.OpSearch:
		return s.provider.SearchByKeyword(ctx, newsprovider.SearchRequest{
			Term: p.Keyword, SortBy: p.SortBy, Language: p.Language,
			Page: p.Page, PageSize: p.PageSize,
		})
	case query.OpRegional:
		return s.provider.SearchByKeyword(ctx, newsprovider.SearchRequest{
			Term: query.RegionalSearchTerm(p.Category), SortBy: p.SortBy, Language: p.Language,
			Page: p.Page, PageSize: p.PageSize,
		})
	case query.OpHeadlines:
		return s.provider.ListByCategory(ctx, newsprovider.HeadlinesRequest{
			Category: p.Category, Country: p.Country,
			Page: p.Page, PageSize: p.PageSize,
		})
	default:
		return article.Page{}, fmt.Errorf("unknown operation %q: %w", p.Operation, domain.ErrValidation)
	}
}

func (s *NewsService) countCache(ctx context.Context, hit bool) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("cache", "query"))
	if hit {
		s.metrics.CacheHits.Add(ctx, 1, attrs)
		return
	}
	s.metrics.CacheMisses.Add(ctx, 1, attrs)
}

func (s *NewsService) recordUpstream(ctx context.Context, op query.Operation, d time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", string(op)))
	s.metrics.UpstreamCalls.Add(ctx, 1, attrs)
	s.metrics.UpstreamDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		s.metrics.UpstreamErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", string(op)),
			attribute.String("kind", errorKind(err)),
		))
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrNotConfigured):
		return "not_configured"
	default:
		return "upstream"
	}
}
