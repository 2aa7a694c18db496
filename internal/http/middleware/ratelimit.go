package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// rateLimiter is a token-bucket throttle over caller keys. Buckets refill
// continuously at rate tokens/second up to burst; idle buckets are swept
// lazily on the allow path, so no background goroutine is needed.
type rateLimiter struct {
	mu        sync.Mutex
	rate      float64
	burst     float64
	callers   map[string]*callerBucket
	lastSweep time.Time
}

type callerBucket struct {
	tokens float64
	seen   time.Time
}

func newRateLimiter(rate float64, burst int) *rateLimiter {
	return &rateLimiter{
		rate:      rate,
		burst:     float64(burst),
		callers:   make(map[string]*callerBucket),
		lastSweep: time.Now(),
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.sweepLocked(now)

	b, ok := l.callers[key]
	if !ok {
		b = &callerBucket{tokens: l.burst}
		l.callers[key] = b
	} else {
		b.tokens += now.Sub(b.seen).Seconds() * l.rate
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweepLocked drops buckets idle long enough to have refilled completely;
// recreating one later is indistinguishable from having kept it.
func (l *rateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	idle := time.Duration(l.burst/l.rate*float64(time.Second)) + time.Minute
	for key, b := range l.callers {
		if now.Sub(b.seen) > idle {
			delete(l.callers, key)
		}
	}
}

// callerKey identifies who is being throttled. Authenticated callers are
// keyed by user id, so a patient uploading from a flaky mobile network keeps
// one bucket across address changes; anonymous callers fall back to the
// address chi's RealIP resolved.
func callerKey(r *http.Request) string {
	if claims, ok := UserClaimsFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(claims.UserID, 10)
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return "addr:" + xri
	}
	return "addr:" + r.RemoteAddr
}

// RateLimit returns middleware that rejects a caller's requests beyond the
// configured rate with 429 Too Many Requests. Used on the attachment upload
// endpoint, where each request can carry several megabytes.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := newRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(callerKey(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
