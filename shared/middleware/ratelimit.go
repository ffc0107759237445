package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vasapolrittideah/freelance-hub-api/shared/response"
)

// RateLimitConfig defines a token bucket per client key.
type RateLimitConfig struct {
	// Requests is the number of requests allowed per Window.
	Requests int `env:"REQUESTS" envDefault:"10"`
	// Window is the refill period for Requests.
	Window time.Duration `env:"WINDOW" envDefault:"1m"`
	// Burst allows temporary bursts above the steady rate.
	Burst int `env:"BURST" envDefault:"10"`
}

// KeyFunc extracts the rate limiting key from a request.
type KeyFunc func(*http.Request) string

// ClientIP returns the host part of RemoteAddr. Run chi's RealIP middleware first
// when the service sits behind a proxy.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type rateLimiter struct {
	limiters    sync.Map // map[string]*rate.Limiter
	limit       rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.limit, rl.burst))
	rl.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket is full, i.e. keys that have been idle.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit limits requests per key using cfg. Requests without a key pass through.
func RateLimit(cfg RateLimitConfig, keyFunc KeyFunc, logger *zerolog.Logger) func(http.Handler) http.Handler {
	rl := &rateLimiter{
		limit:       rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			limiter := rl.getLimiter(key)
			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				w.Header().Set("Retry-After", fmt.Sprintf("%d", max(int(delay.Seconds()), 1)))
				logger.Warn().Str("key", key).Str("path", r.URL.Path).Msg("rate limit exceeded")
				response.Fail(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits requests per client IP.
func RateLimitByIP(cfg RateLimitConfig, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return RateLimit(cfg, ClientIP, logger)
}
