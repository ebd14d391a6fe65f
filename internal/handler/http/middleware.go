package http

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps a token bucket per client IP with periodic cleanup of
// idle entries.
type RateLimiter struct {
	rate         rate.Limit
	burst        int
	cleanupAfter time.Duration
	clients      sync.Map
	once         sync.Once
}

type clientInfo struct {
	limiter  *rate.Limiter
	lastSeen int64
}

func NewRateLimiter(max int, per time.Duration) *RateLimiter {
	rl := &RateLimiter{
		rate:         rate.Limit(float64(max) / per.Seconds()),
		burst:        max,
		cleanupAfter: 3 * time.Minute,
	}
	rl.once.Do(func() {
		go rl.cleanupLoop()
	})
	return rl
}

func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := rl.getOrCreate(extractIPAddress(r))
		atomic.StoreInt64(&info.lastSeen, time.Now().UnixNano())

		if !info.limiter.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(1))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func (rl *RateLimiter) getOrCreate(key string) *clientInfo {
	if v, ok := rl.clients.Load(key); ok {
		return v.(*clientInfo)
	}
	info := &clientInfo{
		limiter:  rate.NewLimiter(rl.rate, rl.burst),
		lastSeen: time.Now().UnixNano(),
	}
	actual, _ := rl.clients.LoadOrStore(key, info)
	return actual.(*clientInfo)
}

func (rl *RateLimiter) cleanupLoop() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for range t.C {
		cutoff := time.Now().Add(-rl.cleanupAfter).UnixNano()
		rl.clients.Range(func(k, v any) bool {
			if atomic.LoadInt64(&v.(*clientInfo).lastSeen) < cutoff {
				rl.clients.Delete(k)
			}
			return true
		})
	}
}

// extractIPAddress pulls the client IP from proxy headers, falling back to
// the connection's remote address.
func extractIPAddress(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For may hold a comma-separated chain
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
