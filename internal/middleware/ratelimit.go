package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const rateLimitedBody = `{"error":"too many requests, please try again later"}`

// RateLimiter is per-IP fixed-window rate limiting middleware: each client
// may make limit requests per window, counted from its first request in
// that window.
type RateLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	period     time.Duration
	maxClients int // max tracked IPs (prevents memory exhaustion)
	now        func() time.Time
	onReject   func(r *http.Request)
}

type window struct {
	start time.Time
	count int
}

// NewRateLimiter creates a limiter allowing limit requests per period per client IP.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		period:     period,
		maxClients: 100000, // 100k IPs max
		now:        time.Now,
	}
}

// OnReject registers a callback invoked for every rejected request.
func (rl *RateLimiter) OnReject(fn func(r *http.Request)) {
	rl.onReject = fn
}

// Handler returns HTTP middleware that enforces per-IP rate limiting.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, reset, allowed := rl.allow(clientIP(r))

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			wait := math.Ceil(reset.Sub(rl.now()).Seconds())
			h.Set("Retry-After", strconv.Itoa(max(int(wait), 1)))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(rateLimitedBody))
			if rl.onReject != nil {
				rl.onReject(r)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow counts a request from ip. It returns how many requests remain in the
// current window, when the window resets, and whether the request is allowed.
func (rl *RateLimiter) allow(ip string) (remaining int, reset time.Time, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	win, exists := rl.windows[ip]
	if !exists || !now.Before(win.start.Add(rl.period)) {
		if !exists && len(rl.windows) >= rl.maxClients {
			return 0, now.Add(rl.period), false // reject when at capacity
		}
		win = &window{start: now}
		rl.windows[ip] = win
	}
	reset = win.start.Add(rl.period)

	if win.count >= rl.limit {
		return 0, reset, false
	}
	win.count++
	return rl.limit - win.count, reset, true
}

// StartCleanup spawns a goroutine that drops expired windows every interval.
// Returns a cancel function that stops the cleanup goroutine.
func (rl *RateLimiter) StartCleanup(interval time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanup()
			}
		}
	}()
	return cancel
}

// cleanup removes windows that have ended.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, win := range rl.windows {
		if !now.Before(win.start.Add(rl.period)) {
			delete(rl.windows, ip)
		}
	}
}

// Len returns the number of tracked client windows (for metrics and testing).
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// clientIP extracts the client IP from RemoteAddr. Forwarding headers are
// only honoured when the server installs chi's RealIP middleware in front,
// which rewrites RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
