// Package ratelimit provides per-client request limiting using token
// buckets.
package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// bucket is a token bucket refilled at a steady rate.
type bucket struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newBucket(capacity int, refillRate float64) *bucket {
	return &bucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// take refills the bucket for the elapsed time, then consumes a token when
// one is available. Returns whether the request is allowed, the tokens left
// and when the bucket will be full again.
func (b *bucket) take() (allowed bool, remaining int, reset time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens = min(float64(b.capacity), b.tokens+now.Sub(b.lastRefill).Seconds()*b.refillRate)
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		allowed = true
	}

	remaining = int(b.tokens)
	reset = now
	if b.tokens < float64(b.capacity) {
		missing := float64(b.capacity) - b.tokens
		reset = now.Add(time.Duration(missing / b.refillRate * float64(time.Second)))
	}
	return allowed, remaining, reset
}

// Info describes the rate limit state returned with every decision.
type Info struct {
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled       bool
	DefaultLimit  int           // requests per window for most endpoints
	DefaultWindow time.Duration
	ProcessLimit  int           // stricter limit for archive-processing endpoints
	ProcessWindow time.Duration
}

// LoadConfig reads rate limiting configuration from environment variables,
// falling back to sensible defaults.
func LoadConfig() *Config {
	return &Config{
		Enabled:       envBool("RATE_LIMIT_ENABLED", true),
		DefaultLimit:  envInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow: envDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		ProcessLimit:  envInt("RATE_LIMIT_PROCESS_LIMIT", 30),
		ProcessWindow: envDuration("RATE_LIMIT_PROCESS_WINDOW", time.Minute),
	}
}

// Limiter manages one token bucket per client and endpoint class.
type Limiter struct {
	config  *Config
	buckets map[string]*bucket
	mu      sync.Mutex
}

// NewLimiter creates a limiter with the given configuration. A nil config
// gets the defaults from LoadConfig.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = LoadConfig()
	}
	return &Limiter{
		config:  config,
		buckets: make(map[string]*bucket),
	}
}

// Allow checks whether a request from clientID against the given path is
// within its budget. Health checks are never limited.
func (l *Limiter) Allow(clientID, path string) (bool, Info) {
	if !l.config.Enabled || path == "/health" {
		return true, Info{}
	}

	limit, window := l.config.DefaultLimit, l.config.DefaultWindow
	class := "default"
	if strings.HasPrefix(path, "/process") || strings.HasPrefix(path, "/scan") {
		limit, window = l.config.ProcessLimit, l.config.ProcessWindow
		class = "process"
	}
	if limit <= 0 {
		return true, Info{}
	}

	key := clientID + ":" + class
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = newBucket(limit, float64(limit)/window.Seconds())
		l.buckets[key] = b
	}
	l.mu.Unlock()

	allowed, remaining, reset := b.take()
	info := Info{Limit: limit, Remaining: remaining, ResetTime: reset}
	if !allowed {
		info.RetryAfter = max(time.Until(reset), 0)
	}
	return allowed, info
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
