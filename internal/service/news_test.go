package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/technews/internal/adapter/memory"
	"github.com/Strob0t/technews/internal/domain"
	"github.com/Strob0t/technews/internal/domain/article"
	"github.com/Strob0t/technews/internal/domain/query"
	"github.com/Strob0t/technews/internal/port/newsprovider"
)

// mockProvider implements newsprovider.Provider for testing.
type mockProvider struct {
	mu        sync.Mutex
	searches  []newsprovider.SearchRequest
	headlines []newsprovider.HeadlinesRequest
	page      article.Page
	err       error
	gate      chan struct{} // when set, calls block until closed
	entered   chan struct{}
}

func (m *mockProvider) SearchByKeyword(_ context.Context, req newsprovider.SearchRequest) (article.Page, error) {
	m.mu.Lock()
	m.searches = append(m.searches, req)
	m.mu.Unlock()
	m.wait()
	return m.page, m.err
}

func (m *mockProvider) ListByCategory(_ context.Context, req newsprovider.HeadlinesRequest) (article.Page, error) {
	m.mu.Lock()
	m.headlines = append(m.headlines, req)
	m.mu.Unlock()
	m.wait()
	return m.page, m.err
}

func (m *mockProvider) wait() {
	if m.entered != nil {
		select {
		case m.entered <- struct{}{}:
		default:
		}
	}
	if m.gate != nil {
		<-m.gate
	}
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.searches) + len(m.headlines)
}

func strPtr(s string) *string { return &s }

func quantumPage() article.Page {
	ts := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return article.Page{
		TotalResults: 3,
		Articles: []article.Article{
			{Source: article.Source{Name: "A"}, Title: "Qubits scale", URL: "https://news.example/q1", PublishedAt: ts},
			{Source: article.Source{ID: strPtr("b"), Name: "B"}, Title: "Error correction", URL: "https://news.example/q2", PublishedAt: ts, Description: strPtr("d")},
			{Source: article.Source{Name: "A"}, Title: "Qubits scale (dup)", URL: "https://news.example/q1", PublishedAt: ts},
		},
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestNewsService(p newsprovider.Provider) (*NewsService, *clock) {
	clk := &clock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	return NewNewsService(p, memory.NewWithClock(clk.Now), 5*time.Minute), clk
}

func TestNewsService_QuantumSearchEndToEnd(t *testing.T) {
	provider := &mockProvider{page: quantumPage()}
	svc, _ := newTestNewsService(provider)
	ctx := context.Background()

	params, err := query.ParseNews(url.Values{"q": {"quantum computing"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := params.Key(); got != "search:quantum computing:publishedAt:en" {
		t.Fatalf("unexpected key %q", got)
	}

	first, err := svc.Fetch(ctx, params)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(first.Articles) != 2 {
		t.Fatalf("expected 2 unique articles, got %d", len(first.Articles))
	}
	if first.Articles[0].URL != "https://news.example/q1" || first.Articles[1].URL != "https://news.example/q2" {
		t.Errorf("dedupe changed order: %+v", first.Articles)
	}
	if len(provider.searches) != 1 || provider.searches[0].Term != "quantum computing" {
		t.Fatalf("unexpected upstream calls: %+v", provider.searches)
	}

	second, err := svc.Fetch(ctx, params)
	if err != nil {
		t.Fatal(err)
	}
	if provider.calls() != 1 {
		t.Fatalf("second fetch within TTL should not call upstream, calls=%d", provider.calls())
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("cached response differs:\n%s\n%s", a, b)
	}
}

func TestNewsService_RefetchAfterTTL(t *testing.T) {
	provider := &mockProvider{page: quantumPage()}
	svc, clk := newTestNewsService(provider)
	ctx := context.Background()
	params := query.Params{Operation: query.OpHeadlines, Category: "science", Country: "us"}

	if _, err := svc.Fetch(ctx, params); err != nil {
		t.Fatal(err)
	}
	clk.Advance(5 * time.Minute)
	if _, err := svc.Fetch(ctx, params); err != nil {
		t.Fatal(err)
	}
	if provider.calls() != 1 {
		t.Fatalf("expected cache hit at exactly TTL, calls=%d", provider.calls())
	}

	clk.Advance(time.Second)
	if _, err := svc.Fetch(ctx, params); err != nil {
		t.Fatal(err)
	}
	if provider.calls() != 2 {
		t.Fatalf("expected refetch after TTL, calls=%d", provider.calls())
	}
}

func TestNewsService_Routing(t *testing.T) {
	tests := []struct {
		name          string
		values        url.Values
		wantSearch    string
		wantHeadlines string
	}{
		{"keyword", url.Values{"q": {"rust"}}, "rust", ""},
		{"indian pseudo category", url.Values{"category": {"indian"}}, query.RegionalSearchTerm("indian"), ""},
		{"default category", url.Values{}, "", "technology"},
		{"real category", url.Values{"category": {"Sports"}}, "", "sports"},
		{"keyword wins over category", url.Values{"q": {"ipl"}, "category": {"indian"}}, "ipl", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{page: article.Page{}}
			svc, _ := newTestNewsService(provider)

			params, err := query.ParseNews(tt.values)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := svc.Fetch(context.Background(), params); err != nil {
				t.Fatal(err)
			}

			if tt.wantSearch != "" {
				if len(provider.searches) != 1 || provider.searches[0].Term != tt.wantSearch {
					t.Fatalf("expected search %q, got %+v", tt.wantSearch, provider.searches)
				}
				if len(provider.headlines) != 0 {
					t.Fatal("unexpected headlines call")
				}
				return
			}
			if len(provider.headlines) != 1 || provider.headlines[0].Category != tt.wantHeadlines {
				t.Fatalf("expected headlines %q, got %+v", tt.wantHeadlines, provider.headlines)
			}
			if provider.headlines[0].Country != "us" {
				t.Errorf("expected default country us, got %q", provider.headlines[0].Country)
			}
		})
	}
}

func TestNewsService_ErrorsAreNotCached(t *testing.T) {
	provider := &mockProvider{err: errors.Join(domain.ErrUpstream, errors.New("status 500"))}
	svc, _ := newTestNewsService(provider)
	params := query.Params{Operation: query.OpSearch, Keyword: "go", SortBy: "publishedAt", Language: "en"}

	for range 2 {
		if _, err := svc.Fetch(context.Background(), params); !errors.Is(err, domain.ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
	}
	if provider.calls() != 2 {
		t.Fatalf("failed fetches must not be cached, calls=%d", provider.calls())
	}
}

func TestNewsService_NotConfigured(t *testing.T) {
	provider := &mockProvider{err: domain.ErrNotConfigured}
	svc, _ := newTestNewsService(provider)
	params := query.Params{Operation: query.OpHeadlines, Category: "general", Country: "us"}

	for range 3 {
		if _, err := svc.Fetch(context.Background(), params); !errors.Is(err, domain.ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}
	}
}

func TestNewsService_ConcurrentMissesShareOneCall(t *testing.T) {
	provider := &mockProvider{
		page:    quantumPage(),
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	svc, _ := newTestNewsService(provider)
	params := query.Params{Operation: query.OpSearch, Keyword: "go", SortBy: "publishedAt", Language: "en"}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Fetch(context.Background(), params)
			errs <- err
		}()
	}

	<-provider.entered
	time.Sleep(20 * time.Millisecond)
	close(provider.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	if provider.calls() != 1 {
		t.Fatalf("expected a single upstream call, got %d", provider.calls())
	}
}

func TestNewsService_CorruptCacheEntryRefetches(t *testing.T) {
	provider := &mockProvider{page: quantumPage()}
	c := memory.New()
	svc := NewNewsService(provider, c, time.Minute)
	params := query.Params{Operation: query.OpHeadlines, Category: "health", Country: "us"}

	_ = c.Set(context.Background(), params.Key(), []byte("not json"), time.Minute)
	page, err := svc.Fetch(context.Background(), params)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Articles) != 2 || provider.calls() != 1 {
		t.Fatalf("expected refetch, got %d articles after %d calls", len(page.Articles), provider.calls())
	}
}
