package main

import (
	"errors"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"remitledger/config"
	"remitledger/native/common"
)

// statusFor maps the ledger failure taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrPrecondition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrSlippage):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// rateLimiter keeps one token bucket per client address.
type rateLimiter struct {
	limits   config.RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
}

func newRateLimiter(limits config.RateLimitConfig) *rateLimiter {
	return &rateLimiter{
		limits:   limits,
		visitors: make(map[string]*rate.Limiter),
	}
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.limits.RequestsPerSecond <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !l.obtain(clientID(r)).Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *rateLimiter) obtain(id string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.visitors[id]
	if !ok {
		burst := l.limits.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(l.limits.RequestsPerSecond), burst)
		l.visitors[id] = limiter
	}
	return limiter
}

func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
