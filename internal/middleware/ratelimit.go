// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"schoolsite/internal/metrics"
)

// RateLimiter throttles form submissions. Each client gets its own
// sliding window per path, so a burst of contact messages does not lock
// the visitor out of signing in.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time // accepted submission times, oldest first

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows limit submissions per window for each client and
// path. A background goroutine forgets idle clients once per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
		stop:   make(chan struct{}),
	}

	sweep := window
	if sweep < time.Minute {
		sweep = time.Minute
	}
	go func() {
		ticker := time.NewTicker(sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.forgetIdle()
			case <-rl.stop:
				return
			}
		}
	}()

	return rl
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// take records a submission for key if the window has room. The second
// result is how long until the oldest recorded submission expires.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	times := live(rl.hits[key], now.Add(-rl.window))
	if len(times) >= rl.limit {
		rl.hits[key] = times
		return false, times[0].Add(rl.window).Sub(now)
	}
	rl.hits[key] = append(times, now)
	return true, 0
}

// live drops the leading entries at or before cutoff.
func live(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

// forgetIdle removes clients whose last submission left the window.
func (rl *RateLimiter) forgetIdle() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, times := range rl.hits {
		if len(live(times, cutoff)) == 0 {
			delete(rl.hits, key)
		}
	}
}

// Middleware rejects POST, PUT, PATCH and DELETE requests beyond the limit
// with 429 and a Retry-After header. Reads always pass, so the form can
// still be shown to a throttled visitor.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		ok, wait := rl.take(ip + " " + r.URL.Path)
		if !ok {
			slog.Warn("form submission throttled", "ip", ip, "path", r.URL.Path)
			metrics.FormsThrottledTotal.WithLabelValues(r.URL.Path).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(wait)))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retrySeconds rounds wait up to whole seconds, at least one.
func retrySeconds(wait time.Duration) int {
	s := int((wait + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// clientIP returns the visitor's address. Behind a proxy the leftmost
// X-Forwarded-For entry wins, then X-Real-IP, then the connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
