package service

import (
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the login throttle parameters.
type RateLimitConfig struct {
	// AttemptsPerWindow is the number of attempts allowed per window
	AttemptsPerWindow int
	// Window is the time window the attempts are spread over
	Window time.Duration
	// Burst allows short bursts above the steady rate
	Burst int
}

// LoginLimit is the default throttle for login attempts (brute force
// prevention): 5 attempts per minute per username, all available as a
// burst. Override with RATELIMIT_LOGIN_ATTEMPTS, RATELIMIT_LOGIN_WINDOW_SEC
// and RATELIMIT_LOGIN_BURST.
var LoginLimit = RateLimitConfig{
	AttemptsPerWindow: 5,
	Window:            time.Minute,
	Burst:             5,
}

func init() {
	LoginLimit = ParseRateLimitFromEnv("LOGIN", LoginLimit)
}

// ParseRateLimitFromEnv reads throttle configuration from environment
// variables following the pattern RATELIMIT_{prefix}_{field}, e.g.
// RATELIMIT_LOGIN_ATTEMPTS. Unset or unparseable values keep the default.
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv("RATELIMIT_" + prefix + "_ATTEMPTS"); val != "" {
		if attempts, err := strconv.Atoi(val); err == nil && attempts > 0 {
			config.AttemptsPerWindow = attempts
		}
	}
	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}
	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// LoginLimiter applies a token-bucket limit per key (username). Keys that
// go idle long enough to refill their bucket are dropped on the next
// cleanup pass so the map cannot grow without bound.
type LoginLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewLoginLimiter builds a limiter from the given configuration.
func NewLoginLimiter(config RateLimitConfig) *LoginLimiter {
	return &LoginLimiter{
		rate:        rate.Limit(float64(config.AttemptsPerWindow) / config.Window.Seconds()),
		burst:       config.Burst,
		lastCleanup: time.Now(),
	}
}

// Allow reports whether an attempt for key may proceed now.
func (rl *LoginLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

func (rl *LoginLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	actual, _ := rl.limiters.LoadOrStore(key, limiter)

	rl.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose buckets are full again. A full bucket
// means the key has been idle for at least one window.
func (rl *LoginLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		limiter := value.(*rate.Limiter)
		if limiter.Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}
