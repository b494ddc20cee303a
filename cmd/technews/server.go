package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/technews/internal/adapter/email"
	tnhttp "github.com/Strob0t/technews/internal/adapter/http"
	"github.com/Strob0t/technews/internal/adapter/memory"
	"github.com/Strob0t/technews/internal/adapter/newsapi"
	cfotel "github.com/Strob0t/technews/internal/adapter/otel"
	"github.com/Strob0t/technews/internal/adapter/ristretto"
	"github.com/Strob0t/technews/internal/config"
	"github.com/Strob0t/technews/internal/fetchpool"
	"github.com/Strob0t/technews/internal/middleware"
	"github.com/Strob0t/technews/internal/port/cache"
	"github.com/Strob0t/technews/internal/port/mailer"
	"github.com/Strob0t/technews/internal/resilience"
	"github.com/Strob0t/technews/internal/service"
)

// app is the fully wired HTTP application plus the background work that
// must be stopped on shutdown.
type app struct {
	router  http.Handler
	closers []func()
}

// Close stops background work in reverse start order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(cfg *config.Config, metrics *cfotel.Metrics) (*app, error) {
	a := &app{}

	// --- Caches ---
	queryCache, err := newQueryCache(cfg.Cache, a)
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	imageCache, err := ristretto.New(cfg.Cache.ImageMaxSizeMB << 20)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("image cache: %w", err)
	}
	a.closers = append(a.closers, imageCache.Close)

	// --- Upstream ---
	client := newsapi.NewClient(cfg.NewsAPI.BaseURL, cfg.NewsAPI.APIKey, cfg.NewsAPI.Timeout)
	client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	if cfg.NewsAPI.APIKey == "" {
		slog.Warn("news api key not configured, news endpoints will fail")
	}

	// --- Services ---
	newsSvc := service.NewNewsService(client, queryCache, cfg.Cache.QueryTTL)
	newsSvc.SetMetrics(metrics)

	imageSvc := service.NewImageService(imageCache, fetchpool.New(cfg.Image.MaxConcurrent), service.ImageConfig{
		Timeout:   cfg.Image.Timeout,
		MaxBytes:  cfg.Image.MaxBytes,
		TTL:       cfg.Cache.ImageTTL,
		UserAgent: cfg.Image.UserAgent,
		Referer:   cfg.Image.Referer,
	})
	imageSvc.SetMetrics(metrics)

	contactSvc := service.NewContactService(newMailer(cfg.Mail), cfg.Mail.To)

	handlers := &tnhttp.Handlers{
		News:    newsSvc,
		Images:  imageSvc,
		Contact: contactSvc,
	}

	// --- HTTP ---
	rl := middleware.NewRateLimiter(cfg.Rate.Requests, cfg.Rate.Window)
	rl.OnReject(func(r *http.Request) {
		if metrics != nil {
			metrics.RateLimited.Add(r.Context(), 1)
		}
	})
	a.closers = append(a.closers, rl.StartCleanup(cfg.Rate.CleanupInterval))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.Server.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(tnhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(tnhttp.CORS(cfg.Server.CORSOrigins))
	r.Use(tnhttp.SecurityHeaders)

	tnhttp.MountRoutes(r, handlers, rl.Handler)
	if cfg.Server.StaticDir != "" {
		tnhttp.MountStatic(r, cfg.Server.StaticDir)
	}

	a.router = r
	return a, nil
}

// newQueryCache builds the response cache for the selected backend and
// registers its shutdown hook on a.
func newQueryCache(cfg config.Cache, a *app) (cache.Cache, error) {
	switch cfg.Backend {
	case "ristretto":
		c, err := ristretto.New(cfg.QueryMaxSizeMB << 20)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	default:
		c := memory.New()
		a.closers = append(a.closers, c.StartSweeper(cfg.SweepInterval))
		return c, nil
	}
}

// newMailer returns nil unless SMTP is fully configured, which makes the
// contact endpoint answer "not configured" instead of failing at send time.
func newMailer(cfg config.Mail) mailer.Mailer {
	if !cfg.Configured() {
		slog.Warn("email not configured, contact form disabled")
		return nil
	}
	return email.NewMailer(email.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		From:     cfg.User,
		Password: cfg.Password,
	})
}
