// Package newsapi provides an HTTP client for the NewsAPI v2 REST API.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	cfotel "github.com/Strob0t/technews/internal/adapter/otel"
	"github.com/Strob0t/technews/internal/domain"
	"github.com/Strob0t/technews/internal/domain/article"
	"github.com/Strob0t/technews/internal/port/newsprovider"
	"github.com/Strob0t/technews/internal/resilience"
)

// DefaultBaseURL is the public NewsAPI endpoint.
const DefaultBaseURL = "https://newsapi.org/v2"

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 8 << 20

// APIError is a non-success answer from NewsAPI. It matches domain.ErrUpstream.
type APIError struct {
	StatusCode int
	Code       string // e.g. "apiKeyInvalid", "rateLimited"
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("newsapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("newsapi: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap makes errors.Is(err, domain.ErrUpstream) hold.
func (e *APIError) Unwrap() error { return domain.ErrUpstream }

// response is the NewsAPI envelope shared by success and error answers.
type response struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Articles     []article.Article `json:"articles"`
	Code         string            `json:"code"`
	Message      string            `json:"message"`
}

// Client talks to NewsAPI. The API key travels in the X-Api-Key header so it
// never appears in a URL that could end up in an error message or log line.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

var _ newsprovider.Provider = (*Client)(nil)

// NewClient creates a new NewsAPI client. An empty baseURL selects
// DefaultBaseURL. A non-positive timeout defaults to 10 seconds.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: cfotel.Transport(nil),
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
// Client-side rejections (4xx other than 429) and caller cancellations do
// not count toward tripping it.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b.CountFailuresWhen(countsAsOutage)
}

// SearchByKeyword queries /everything.
func (c *Client) SearchByKeyword(ctx context.Context, req newsprovider.SearchRequest) (article.Page, error) {
	q := url.Values{}
	q.Set("q", req.Term)
	if req.SortBy != "" {
		q.Set("sortBy", req.SortBy)
	}
	if req.Language != "" {
		q.Set("language", req.Language)
	}
	setPaging(q, req.Page, req.PageSize)

	page, err := c.get(ctx, "/everything", q)
	if err != nil {
		return article.Page{}, fmt.Errorf("search %q: %w", req.Term, err)
	}
	return page, nil
}

// ListByCategory queries /top-headlines.
func (c *Client) ListByCategory(ctx context.Context, req newsprovider.HeadlinesRequest) (article.Page, error) {
	q := url.Values{}
	if req.Category != "" {
		q.Set("category", req.Category)
	}
	if req.Country != "" {
		q.Set("country", req.Country)
	}
	setPaging(q, req.Page, req.PageSize)

	page, err := c.get(ctx, "/top-headlines", q)
	if err != nil {
		return article.Page{}, fmt.Errorf("headlines %s/%s: %w", req.Category, req.Country, err)
	}
	return page, nil
}

func setPaging(q url.Values, page, pageSize int) {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (article.Page, error) {
	if c.apiKey == "" {
		return article.Page{}, fmt.Errorf("newsapi key missing: %w", domain.ErrNotConfigured)
	}

	var page article.Page
	call := func() error {
		var err error
		page, err = c.doRequest(ctx, path, q)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return article.Page{}, fmt.Errorf("newsapi: %w: %w", domain.ErrUpstream, err)
		}
	} else {
		err = call()
	}
	return page, err
}

func (c *Client) doRequest(ctx context.Context, path string, q url.Values) (article.Page, error) {
	endpoint := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return article.Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return article.Page{}, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return article.Page{}, classifyTransportError(err)
	}

	var body response
	decodeErr := json.Unmarshal(data, &body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || body.Status == "error" {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code, apiErr.Message = body.Code, body.Message
		}
		return article.Page{}, apiErr
	}
	if decodeErr != nil {
		return article.Page{}, fmt.Errorf("decode response: %w: %w", domain.ErrUpstream, decodeErr)
	}

	if body.Articles == nil {
		body.Articles = []article.Article{}
	}
	return article.Page{TotalResults: body.TotalResults, Articles: body.Articles}, nil
}

// classifyTransportError maps a failed round trip to ErrTimeout or ErrUpstream.
// The request URL carries no credential, so the wrapped error is safe to log.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("newsapi request: %w: %w", domain.ErrTimeout, err)
	}
	return fmt.Errorf("newsapi request: %w: %w", domain.ErrUpstream, err)
}

func countsAsOutage(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
