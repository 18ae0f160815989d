// Package ratelimit throttles requests per client IP with a token bucket.
package ratelimit

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/httputil"
	"refeera/pkg/requestcontext"
)

const idleEviction = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client IP. Buckets idle for longer than
// idleEviction are dropped on the next sweep.
type Limiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// New returns a Limiter allowing rps requests per second with the given burst.
// A non-positive rps disables limiting.
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether a request from key may proceed.
func (l *Limiter) Allow(key string) bool {
	if l.rps <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleEviction {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > idleEviction {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429. It expects the client
// IP to have been stored by metadata.ClientMetadata.
func (l *Limiter) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if !l.Allow(ip) {
				logger.WarnContext(ctx, "rate limit exceeded",
					"client_ip", ip,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", "1")
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "Too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
