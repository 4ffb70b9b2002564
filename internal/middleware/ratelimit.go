package middleware

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per caller, keyed by authenticated uid
// when present, client IP otherwise.
type RateLimiter struct {
	limiters sync.Map
	rps      rate.Limit
	burst    int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{rps: rate.Limit(rps), burst: burst}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	actual, _ := l.limiters.LoadOrStore(key, lim)
	return actual.(*rate.Limiter)
}

func (l *RateLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key, _ := c.Get("uid").(string)
		if key == "" {
			key = c.RealIP()
		}
		if !l.limiter(key).Allow() {
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"success": false,
				"error":   "Too many requests, please try again later",
			})
		}
		return next(c)
	}
}
