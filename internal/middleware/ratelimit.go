package middleware

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc picks the bucket a request is charged to
	KeyFunc func(c *gin.Context) string
	// Scope labels metrics and namespaces Redis keys
	Scope string
}

// ClientIPKey charges requests to the resolved client address
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// DefaultRateLimitConfig returns sensible defaults for the management API
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   100,         // 100 requests
		Window:  time.Minute, // per minute
		KeyFunc: ClientIPKey,
		Scope:   "api",
	}
}

// RedirectRateLimitConfig returns limits for public short link traffic
func RedirectRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   120,
		Window:  time.Minute,
		KeyFunc: ClientIPKey,
		Scope:   "redirect",
	}
}

// ErrInvalidRateLimit is returned for a config that allows no requests.
var ErrInvalidRateLimit = errors.New("rate limit must be positive")

func (cfg RateLimitConfig) validate() error {
	if cfg.Limit <= 0 {
		return fmt.Errorf("%w: scope %q has limit %d", ErrInvalidRateLimit, cfg.Scope, cfg.Limit)
	}
	return nil
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIPKey
	}
	if cfg.Scope == "" {
		cfg.Scope = "default"
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}

// TokenBucket for rate limiting
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = math.Min(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
}

// Allow checks if a request is allowed based on token availability
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// GetRetryAfter returns seconds to wait before next request
func (tb *TokenBucket) GetRetryAfter() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.tokens < 1 {
		if tb.refillRate <= 0 {
			return 1
		}
		timeToToken := (1 - tb.tokens) / tb.refillRate
		return int(timeToToken) + 1
	}
	return 0
}

// full reports whether the bucket has refilled completely, i.e. nobody used it for a window
func (tb *TokenBucket) full(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	return tb.tokens >= tb.maxTokens
}

// RateLimiter keeps one token bucket per key
type RateLimiter struct {
	buckets map[string]*TokenBucket
	config  RateLimitConfig
	mu      sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryRateLimiter creates an in-process limiter without a cleanup goroutine
func NewMemoryRateLimiter(config RateLimitConfig) (*RateLimiter, error) {
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
	}, nil
}

// NewRateLimiter creates an in-process limiter that sweeps idle buckets every minute.
// Call Stop to end the sweeper.
func NewRateLimiter(config RateLimitConfig) (*RateLimiter, error) {
	rl, err := NewMemoryRateLimiter(config)
	if err != nil {
		return nil, err
	}
	rl.stop = make(chan struct{})
	rl.done = make(chan struct{})
	go rl.cleanupRoutine(time.Minute)
	return rl, nil
}

// Middleware returns the gin handler charging each request to its key
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.config.KeyFunc(c)
		if !rl.Allow(key) {
			rejectRateLimited(c, rl.config, rl.GetRetryAfter(key))
			return
		}
		c.Next()
	}
}

// Stop ends the sweeper and waits for it to exit. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	if rl.stop == nil {
		return
	}
	rl.stopOnce.Do(func() { close(rl.stop) })
	<-rl.done
}

// Allow checks if a key is allowed to make a request
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	bucket, exists := rl.buckets[key]
	if !exists {
		refillRate := float64(rl.config.Limit) / rl.config.Window.Seconds()
		bucket = NewTokenBucket(float64(rl.config.Limit), refillRate)
		rl.buckets[key] = bucket
	}
	rl.mu.Unlock()

	return bucket.Allow()
}

// GetRetryAfter gets retry-after seconds for a key
func (rl *RateLimiter) GetRetryAfter(key string) int {
	rl.mu.Lock()
	bucket, exists := rl.buckets[key]
	rl.mu.Unlock()

	if !exists {
		return 1
	}
	return bucket.GetRetryAfter()
}

// Len returns the number of tracked keys
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Sweep drops buckets that have fully refilled
func (rl *RateLimiter) Sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, bucket := range rl.buckets {
		if bucket.full(now) {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) cleanupRoutine(every time.Duration) {
	defer close(rl.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			rl.Sweep(now)
		case <-rl.stop:
			return
		}
	}
}

func rejectRateLimited(c *gin.Context, config RateLimitConfig, retryAfter int) {
	RecordRateLimitExceeded(config.Scope, c.Request.Method)
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
	c.Header("X-RateLimit-Remaining", "0")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "RATE_LIMITED",
		"message":     "rate limit exceeded",
		"retry_after": retryAfter,
	})
}
