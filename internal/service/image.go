package service

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/Strob0t/technews/internal/adapter/otel"
	"github.com/Strob0t/technews/internal/domain/query"
	"github.com/Strob0t/technews/internal/fetchpool"
	"github.com/Strob0t/technews/internal/port/cache"
)

// Image relay defaults.
const (
	DefaultImageTimeout  = 10 * time.Second
	DefaultImageMaxBytes = 10 << 20
	DefaultImageTTL      = 24 * time.Hour
	DefaultImageAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultImageReferer  = "https://www.google.com/"

	imageAccept = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"

	imageCacheControl       = "public, max-age=86400"
	placeholderCacheControl = "public, max-age=3600"
)

// placeholderGIF is a 1x1 transparent GIF.
var placeholderGIF = mustDecodeBase64("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

func mustDecodeBase64(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// errImageRejected marks a fetched resource that is not a usable image.
var errImageRejected = errors.New("image rejected")

// Image is what the relay serves to the browser.
type Image struct {
	Data         []byte
	ContentType  string
	CacheControl string
	Placeholder  bool
}

// Placeholder returns the transparent GIF served whenever a fetch fails.
func Placeholder() Image {
	return Image{
		Data:         placeholderGIF,
		ContentType:  "image/gif",
		CacheControl: placeholderCacheControl,
		Placeholder:  true,
	}
}

// ImageConfig tunes the outbound image fetch.
type ImageConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	TTL       time.Duration
	UserAgent string
	Referer   string
}

func (c *ImageConfig) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultImageTimeout
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultImageMaxBytes
	}
	if c.TTL <= 0 {
		c.TTL = DefaultImageTTL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultImageAgent
	}
	if c.Referer == "" {
		c.Referer = DefaultImageReferer
	}
}

// ImageService relays third-party article images through the backend so
// hotlink protection and mixed-content rules do not break the page. It never
// fails: any problem yields the placeholder.
type ImageService struct {
	cfg     ImageConfig
	cache   cache.Cache
	pool    *fetchpool.Pool
	client  *http.Client
	metrics *cfotel.Metrics
}

// NewImageService creates an ImageService. pool may be nil for unbounded fetches.
func NewImageService(c cache.Cache, pool *fetchpool.Pool, cfg ImageConfig) *ImageService {
	cfg.applyDefaults()
	return &ImageService{
		cfg:   cfg,
		cache: c,
		pool:  pool,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfotel.Transport(nil),
		},
	}
}

// SetMetrics attaches metric instruments.
func (s *ImageService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Fetch returns the image at rawURL, from cache when possible.
func (s *ImageService) Fetch(ctx context.Context, rawURL string) Image {
	u, err := query.ValidateImageURL(rawURL)
	if err != nil {
		return s.fallback(ctx, "invalid_url", rawURL, err)
	}
	key := "image:" + u.String()

	if data, found, err := s.cache.Get(ctx, key); err == nil && found {
		if img, ok := decodeImage(data); ok {
			s.countCache(ctx, true)
			return img
		}
	}
	s.countCache(ctx, false)

	ctx, span := cfotel.StartImageSpan(ctx, u.Host)
	defer span.End()

	img, err := fetchpool.Do(ctx, s.pool, func() (Image, error) {
		return s.download(ctx, u.String())
	})
	if err != nil {
		span.RecordError(err)
		reason := "fetch"
		if errors.Is(err, errImageRejected) {
			reason = "rejected"
		}
		return s.fallback(ctx, reason, rawURL, err)
	}

	if err := s.cache.Set(ctx, key, encodeImage(img), s.cfg.TTL); err != nil {
		slog.WarnContext(ctx, "image cache write failed", "error", err)
	}
	return img
}

func (s *ImageService) download(ctx context.Context, target string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return Image{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Referer", s.cfg.Referer)
	req.Header.Set("Accept", imageAccept)

	resp, err := s.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Image{}, fmt.Errorf("status %d: %w", resp.StatusCode, errImageRejected)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return Image{}, fmt.Errorf("content type %q: %w", contentType, errImageRejected)
	}
	if resp.ContentLength > s.cfg.MaxBytes {
		return Image{}, fmt.Errorf("content length %d exceeds limit: %w", resp.ContentLength, errImageRejected)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return Image{}, fmt.Errorf("body exceeds %d bytes: %w", s.cfg.MaxBytes, errImageRejected)
	}

	return Image{Data: data, ContentType: contentType, CacheControl: imageCacheControl}, nil
}

func (s *ImageService) fallback(ctx context.Context, reason, rawURL string, err error) Image {
	slog.DebugContext(ctx, "serving image placeholder", "reason", reason, "url", truncate(rawURL, 200), "error", err)
	if s.metrics != nil {
		s.metrics.ImageFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
	return Placeholder()
}

func (s *ImageService) countCache(ctx context.Context, hit bool) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("cache", "image"))
	if hit {
		s.metrics.CacheHits.Add(ctx, 1, attrs)
		return
	}
	s.metrics.CacheMisses.Add(ctx, 1, attrs)
}

// encodeImage packs content type and body into one cache value:
// a big-endian uint16 length, the content type, then the bytes.
func encodeImage(img Image) []byte {
	ct := img.ContentType
	if len(ct) > 0xffff {
		ct = ct[:0xffff]
	}
	out := make([]byte, 2+len(ct)+len(img.Data))
	binary.BigEndian.PutUint16(out, uint16(len(ct)))
	copy(out[2:], ct)
	copy(out[2+len(ct):], img.Data)
	return out
}

func decodeImage(b []byte) (Image, bool) {
	if len(b) < 2 {
		return Image{}, false
	}
	n := int(binary.BigEndian.Uint16(b))
	if len(b) < 2+n {
		return Image{}, false
	}
	return Image{
		ContentType:  string(b[2 : 2+n]),
		Data:         b[2+n:],
		CacheControl: imageCacheControl,
	}, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
