/*
Package devgateway is an in-memory stand-in for the Questify application server.

This file provides the per-IP token-bucket limiter guarding the credential
endpoints against tight login loops during development.
*/
package devgateway

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"questify/internal/pkg/errs"
	"questify/internal/pkg/logx"
)

// ipRateLimiter holds one token bucket per client IP.
type ipRateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter
	r      rate.Limit
	b      int
}

// newIPRateLimiter creates a limiter with rate r and burst b, and starts the
// background sweep of idle buckets.
func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	l := &ipRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go l.sweepIdle()

	return l
}

// limiterFor returns the bucket for ip, creating it when absent.
func (l *ipRateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[ip]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(l.r, l.b)
			l.limits[ip] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

// sweepIdle periodically removes buckets that have refilled completely.
func (l *ipRateLimiter) sweepIdle() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		for ip, limiter := range l.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(l.limits, ip)
			}
		}
		l.mu.Unlock()
	}
}

// middleware rejects requests over the limit with 429.
func (l *ipRateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			ip = "unknown_ip"
		}

		if !l.limiterFor(ip).Allow() {
			logx.Warn("Request rejected by rate limiter", "ip", ip, "path", r.URL.Path)
			respondError(w, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
