package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"sync"
	"time"
)

// RateLimiter is a fixed-window request counter per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	now      func() time.Time
	exempt   []netip.Prefix
	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

// Exempt skips limiting for clients inside any of the prefixes, such as
// the CRM API host that calls on behalf of every deal.
func (rl *RateLimiter) Exempt(prefixes ...netip.Prefix) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.exempt = append(rl.exempt, prefixes...)
}

// AllowRequest counts r against its client unless the client is exempt.
func (rl *RateLimiter) AllowRequest(r *http.Request) bool {
	ip := ClientIP(r)
	if addr, err := netip.ParseAddr(ip); err == nil {
		rl.mu.Lock()
		exempt := rl.exempt
		rl.mu.Unlock()
		for _, p := range exempt {
			if p.Contains(addr.Unmap()) {
				return true
			}
		}
	}
	return rl.Allow(ip)
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for ip, v := range rl.visitors {
				if now.Sub(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// ClientIP returns the peer address without its port. Forwarding headers
// are only honoured through chi's RealIP middleware, which rewrites
// RemoteAddr and is mounted only behind a trusted proxy.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
