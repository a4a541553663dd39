package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// limiterTTL bounds how long idle client limiters are kept.
const limiterTTL = time.Hour

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
	now         func() time.Time
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	return &ipLimiter{
		limit:       rate.Limit(perSecond),
		burst:       burst,
		limiters:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// get returns the limiter for ip, dropping every limiter once per TTL.
func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.now().Sub(l.lastCleanup) > limiterTTL {
		l.limiters = make(map[string]*rate.Limiter)
		l.lastCleanup = l.now()
	}

	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	return limiter
}

// middleware rejects requests over the client's budget with 429.
func (l *ipLimiter) middleware(metrics *HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.get(c.RealIP()).Allow() {
				metrics.RecordRateLimited(c)
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
