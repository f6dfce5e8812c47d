package http

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limits configures the token buckets used for REST clients and WebSocket
// connections.
type Limits struct {
	PerSecond float64
	Burst     int
}

func (l Limits) newLimiter() *rate.Limiter {
	if l.PerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := l.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(l.PerSecond), burst)
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter keeps one token bucket per client IP.
type IPLimiter struct {
	limits  Limits
	idleTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

func NewIPLimiter(limits Limits, logger *slog.Logger) *IPLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &IPLimiter{
		limits:  limits,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
		logger:  logger,
		clients: make(map[string]*clientLimiter),
	}
}

// Allow spends one token for ip.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	now := l.now()
	l.sweepLocked(now)
	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: l.limits.newLimiter()}
		l.clients[ip] = c
	}
	c.lastSeen = now
	l.mu.Unlock()
	return c.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.Allow(ip) {
			l.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(1))
			writeJSON(w, http.StatusTooManyRequests, errorPayload{Message: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *IPLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idleTTL {
			delete(l.clients, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
