package api

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"stock-analytics/internal/logger"
	"stock-analytics/internal/metrics"
)

// setCORS sets CORS headers for REST endpoints.
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
}

// withCORS answers preflight requests and decorates every response.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRequestID propagates X-Request-ID (or a fresh UUID) through the
// request context and echoes it on the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 128 {
			id = logger.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// IPRateLimiter hands out one token bucket per client IP. Idle buckets are
// dropped by Cleanup.
type IPRateLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.RWMutex
	limiters map[string]*ipLimiter
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows rps requests per second with the given burst per IP.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*ipLimiter),
	}
}

// Allow reports whether ip may make a request now.
func (l *IPRateLimiter) Allow(ip string) bool {
	now := time.Now()
	l.mu.RLock()
	e, ok := l.limiters[ip]
	l.mu.RUnlock()

	if !ok {
		l.mu.Lock()
		// check again in case another goroutine created it
		if e, ok = l.limiters[ip]; !ok {
			e = &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
			l.limiters[ip] = e
		}
		l.mu.Unlock()
	}

	l.mu.Lock()
	e.lastSeen = now
	l.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Cleanup drops limiters idle for longer than maxIdle.
func (l *IPRateLimiter) Cleanup(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
			n++
		}
	}
	return n
}

// Size returns the number of tracked clients.
func (l *IPRateLimiter) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

func withRateLimit(l *IPRateLimiter, prom *metrics.Metrics, next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.Allow(ip) {
			log.Printf("[api] rate limit exceeded for %s", ip)
			if prom != nil {
				prom.RateLimited.Inc()
			}
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Real-IP"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder captures the response code for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.code = http.StatusSwitchingProtocols
	return h.Hijack()
}

// withRequestMetrics counts responses under the route pattern, not the raw
// path, to keep label cardinality bounded.
func withRequestMetrics(prom *metrics.Metrics, pattern string, next http.Handler) http.Handler {
	if prom == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		prom.HTTPRequests.WithLabelValues(pattern, strconv.Itoa(rec.code)).Inc()
	})
}
