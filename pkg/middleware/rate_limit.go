package middleware

import (
	"net/http"
	"sync"
	"time"

	"habla/pkg/logger"
)

// PhoneExtractor pulls the customer phone a request acts on behalf of.
// Conversations are keyed by caller phone, so rate limiting is per phone
// rather than per source IP.
type PhoneExtractor func(r *http.Request) string

// DefaultPhoneExtractor reads the phone the conversation driver forwards in
// a header, falling back to the query string.
func DefaultPhoneExtractor(r *http.Request) string {
	if phone := r.Header.Get("X-Customer-Phone"); phone != "" {
		return phone
	}
	return r.URL.Query().Get("phone")
}

type PhoneRateLimiter struct {
	mu             sync.RWMutex
	requests       map[string][]time.Time
	limit          int
	window         time.Duration
	phoneExtractor PhoneExtractor
	log            *logger.Logger
	stopCh         chan struct{}
}

func NewPhoneRateLimiter(limit int, window time.Duration, extractor PhoneExtractor, log *logger.Logger) *PhoneRateLimiter {
	limiter := &PhoneRateLimiter{
		requests:       make(map[string][]time.Time),
		limit:          limit,
		window:         window,
		phoneExtractor: extractor,
		log:            log,
		stopCh:         make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *PhoneRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for phone, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, phone)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *PhoneRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *PhoneRateLimiter) Allow(phone string) bool {
	if phone == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	validTimestamps := make([]time.Time, 0)
	for _, ts := range rl.requests[phone] {
		if now.Sub(ts) < rl.window {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	if len(validTimestamps) >= rl.limit {
		rl.requests[phone] = validTimestamps
		return false
	}

	rl.requests[phone] = append(validTimestamps, now)
	return true
}

func PhoneRateLimit(limiter *PhoneRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			phone := limiter.phoneExtractor(r)
			if !limiter.Allow(phone) {
				limiter.log.Warn("Rate limit exceeded",
					"phone", phone,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
