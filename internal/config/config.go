// Package config provides hierarchical configuration loading for TechNews.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the TechNews backend.
type Config struct {
	Server  Server  `yaml:"server"`
	NewsAPI NewsAPI `yaml:"newsapi"`
	Cache   Cache   `yaml:"cache"`
	Image   Image   `yaml:"image"`
	Mail    Mail    `yaml:"mail"`
	Logging Logging `yaml:"logging"`
	Breaker Breaker `yaml:"breaker"`
	Rate    Rate    `yaml:"rate"`
	OTEL    OTEL    `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port            string        `yaml:"port"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	StaticDir       string        `yaml:"static_dir"`  // built client; empty = API only
	TrustProxy      bool          `yaml:"trust_proxy"` // honour X-Forwarded-For for client IPs
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// NewsAPI holds upstream news service configuration.
type NewsAPI struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"` // empty = news endpoints answer 500 "not configured"
	Timeout time.Duration `yaml:"timeout"`
}

// Cache holds response and image cache configuration.
type Cache struct {
	Backend        string        `yaml:"backend"` // "memory" | "ristretto" (query cache)
	QueryTTL       time.Duration `yaml:"query_ttl"`
	ImageTTL       time.Duration `yaml:"image_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	QueryMaxSizeMB int64         `yaml:"query_max_size_mb"` // ristretto backend only
	ImageMaxSizeMB int64         `yaml:"image_max_size_mb"`
}

// Image holds image relay configuration.
type Image struct {
	Timeout       time.Duration `yaml:"timeout"`
	MaxBytes      int64         `yaml:"max_bytes"`
	UserAgent     string        `yaml:"user_agent"`
	Referer       string        `yaml:"referer"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// Mail holds SMTP configuration for the contact form.
type Mail struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	To       string `yaml:"to"` // defaults to User
}

// Configured reports whether enough is set to send mail.
func (m Mail) Configured() bool {
	return m.Host != "" && m.User != "" && m.Password != "" && m.To != ""
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for the upstream news client.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds per-IP rate limiting configuration.
type Rate struct {
	Requests        int           `yaml:"requests"`
	Window          time.Duration `yaml:"window"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// OTEL holds OpenTelemetry export configuration.
type OTEL struct {
	Endpoint    string `yaml:"endpoint"` // empty = telemetry not exported
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Server: Server{
			Port: "5000",
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:3001",
				"http://localhost:3002",
				"https://technews-updates.onrender.com",
			},
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		NewsAPI: NewsAPI{
			BaseURL: "https://newsapi.org/v2",
			Timeout: 10 * time.Second,
		},
		Cache: Cache{
			Backend:        "memory",
			QueryTTL:       5 * time.Minute,
			ImageTTL:       24 * time.Hour,
			SweepInterval:  60 * time.Second,
			QueryMaxSizeMB: 64,
			ImageMaxSizeMB: 256,
		},
		Image: Image{
			Timeout:       10 * time.Second,
			MaxBytes:      10 << 20,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			Referer:       "https://www.google.com/",
			MaxConcurrent: 16,
		},
		Mail: Mail{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		Logging: Logging{
			Level:   "info",
			Service: "technews",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			Requests:        100,
			Window:          15 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		OTEL: OTEL{
			ServiceName: "technews",
		},
	}
}
