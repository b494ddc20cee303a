package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "technews.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error. TECHNEWS_CONFIG
// overrides the file path.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("TECHNEWS_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if cfg.Mail.To == "" {
		cfg.Mail.To = cfg.Mail.User
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	// Names shared with existing deployments.
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.NewsAPI.APIKey, "NEWS_API_KEY")
	setString(&cfg.Mail.User, "EMAIL_USER")
	setString(&cfg.Mail.Password, "EMAIL_PASS")
	setString(&cfg.Mail.To, "EMAIL_TO")

	// Server
	setString(&cfg.Server.Port, "TECHNEWS_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TECHNEWS_CORS_ORIGINS")
	setString(&cfg.Server.StaticDir, "TECHNEWS_STATIC_DIR")
	setBool(&cfg.Server.TrustProxy, "TECHNEWS_TRUST_PROXY")
	setDuration(&cfg.Server.RequestTimeout, "TECHNEWS_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "TECHNEWS_SHUTDOWN_TIMEOUT")

	// Upstream
	setString(&cfg.NewsAPI.BaseURL, "TECHNEWS_NEWSAPI_URL")
	setDuration(&cfg.NewsAPI.Timeout, "TECHNEWS_NEWSAPI_TIMEOUT")

	// Cache
	setString(&cfg.Cache.Backend, "TECHNEWS_CACHE_BACKEND")
	setDuration(&cfg.Cache.QueryTTL, "TECHNEWS_CACHE_QUERY_TTL")
	setDuration(&cfg.Cache.ImageTTL, "TECHNEWS_CACHE_IMAGE_TTL")
	setDuration(&cfg.Cache.SweepInterval, "TECHNEWS_CACHE_SWEEP_INTERVAL")
	setInt64(&cfg.Cache.QueryMaxSizeMB, "TECHNEWS_CACHE_QUERY_SIZE_MB")
	setInt64(&cfg.Cache.ImageMaxSizeMB, "TECHNEWS_CACHE_IMAGE_SIZE_MB")

	// Image relay
	setDuration(&cfg.Image.Timeout, "TECHNEWS_IMAGE_TIMEOUT")
	setInt64(&cfg.Image.MaxBytes, "TECHNEWS_IMAGE_MAX_BYTES")
	setString(&cfg.Image.UserAgent, "TECHNEWS_IMAGE_USER_AGENT")
	setString(&cfg.Image.Referer, "TECHNEWS_IMAGE_REFERER")
	setInt(&cfg.Image.MaxConcurrent, "TECHNEWS_IMAGE_MAX_CONCURRENT")

	// Mail
	setString(&cfg.Mail.Host, "TECHNEWS_MAIL_HOST")
	setInt(&cfg.Mail.Port, "TECHNEWS_MAIL_PORT")

	// Logging
	setString(&cfg.Logging.Level, "TECHNEWS_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TECHNEWS_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TECHNEWS_LOG_ASYNC")

	// Resilience
	setInt(&cfg.Breaker.MaxFailures, "TECHNEWS_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TECHNEWS_BREAKER_TIMEOUT")
	setInt(&cfg.Rate.Requests, "TECHNEWS_RATE_REQUESTS")
	setDuration(&cfg.Rate.Window, "TECHNEWS_RATE_WINDOW")
	setDuration(&cfg.Rate.CleanupInterval, "TECHNEWS_RATE_CLEANUP_INTERVAL")

	// Telemetry
	setString(&cfg.OTEL.Endpoint, "TECHNEWS_OTEL_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "TECHNEWS_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "TECHNEWS_OTEL_SERVICE_NAME")
}

// validate rejects values the server cannot run with. Missing credentials
// are not errors: the affected endpoints report "not configured" instead.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric, got %q", cfg.Server.Port)
	}
	if cfg.NewsAPI.BaseURL == "" {
		return errors.New("newsapi.base_url is required")
	}
	switch cfg.Cache.Backend {
	case "memory", "ristretto":
	default:
		return fmt.Errorf("cache.backend must be memory or ristretto, got %q", cfg.Cache.Backend)
	}
	positive := []struct {
		name string
		d    time.Duration
	}{
		{"newsapi.timeout", cfg.NewsAPI.Timeout},
		{"cache.query_ttl", cfg.Cache.QueryTTL},
		{"cache.image_ttl", cfg.Cache.ImageTTL},
		{"cache.sweep_interval", cfg.Cache.SweepInterval},
		{"image.timeout", cfg.Image.Timeout},
		{"rate.window", cfg.Rate.Window},
		{"rate.cleanup_interval", cfg.Rate.CleanupInterval},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}
	if cfg.Cache.ImageMaxSizeMB < 1 || cfg.Cache.QueryMaxSizeMB < 1 {
		return errors.New("cache size limits must be >= 1 MB")
	}
	if cfg.Image.MaxBytes < 1 {
		return errors.New("image.max_bytes must be >= 1")
	}
	if cfg.Image.MaxConcurrent < 1 {
		return errors.New("image.max_concurrent must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Requests < 1 {
		return errors.New("rate.requests must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setStringSlice(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
