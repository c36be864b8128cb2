package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPRateLimiter manages rate limiters for individual IP addresses.
type IPRateLimiter struct {
	ips     map[string]*rateLimiterEntry
	mu      sync.Mutex
	r       rate.Limit
	b       int
	cleanup time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter.
// r is the rate (requests per second), b is the burst size.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	limiter := &IPRateLimiter{
		ips:     make(map[string]*rateLimiterEntry),
		r:       r,
		b:       b,
		cleanup: 10 * time.Minute,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	// Start cleanup goroutine to prevent memory leaks from stale entries
	go limiter.cleanupLoop()

	return limiter
}

// GetLimiter returns the rate limiter for the given IP address.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	entry, exists := i.ips[ip]
	if !exists {
		limiter := rate.NewLimiter(i.r, i.b)
		i.ips[ip] = &rateLimiterEntry{
			limiter:  limiter,
			lastSeen: time.Now(),
		}
		return limiter
	}

	entry.lastSeen = time.Now()
	return entry.limiter
}

// Len reports how many addresses are currently tracked.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (i *IPRateLimiter) Stop() {
	i.stopOnce.Do(func() { close(i.stop) })
}

// cleanupLoop periodically removes stale rate limiter entries until Stop is called.
func (i *IPRateLimiter) cleanupLoop() {
	defer close(i.done)
	ticker := time.NewTicker(i.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			i.prune(time.Now().Add(-i.cleanup))
		case <-i.stop:
			return
		}
	}
}

func (i *IPRateLimiter) prune(cutoff time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for ip, entry := range i.ips {
		if entry.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
		}
	}
}

// extractIP extracts the client IP from a request, handling proxied requests.
func extractIP(r *http.Request) string {
	// chi's RealIP middleware sets RemoteAddr to the real IP
	// but we need to extract just the IP without the port
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// RateLimitMiddleware returns middleware that rate limits requests by IP.
func RateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractIP(r)
			l := limiter.GetLimiter(ip)
			if !l.Allow() {
				w.Header().Set("Retry-After", retryAfter(l.Limit()))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfter is the time in whole seconds until one token refills, capped at a minute.
func retryAfter(limit rate.Limit) string {
	secs := 1
	if limit > 0 && limit < 1 {
		secs = int(math.Ceil(1 / float64(limit)))
	}
	return strconv.Itoa(min(secs, 60))
}
