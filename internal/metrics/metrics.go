// Package metrics defines the Prometheus metrics and the /healthz status of
// the analytics service.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analytics service.
type Metrics struct {
	// Computation
	BacktestsTotal      *prometheus.CounterVec // labels: strategy
	BacktestDur         prometheus.Histogram
	PredictionsTotal    *prometheus.CounterVec // labels: method
	SentimentTotal      *prometheus.CounterVec // labels: sentiment
	IndicatorComputeDur prometheus.Histogram

	// Result cache
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Price sources
	SourceRequests *prometheus.CounterVec   // labels: source, result
	SourceFetchDur *prometheus.HistogramVec // labels: source

	// Run journal
	RunsStored     prometheus.Counter
	SQLiteWriteDur prometheus.Histogram

	// HTTP surface
	HTTPRequests *prometheus.CounterVec // labels: path, code
	RateLimited  prometheus.Counter

	// Live stream
	StreamClients   prometheus.Gauge
	StreamMessages  prometheus.Counter
	SentimentShifts *prometheus.CounterVec // labels: to

	// Circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter

	// Market session
	MarketState prometheus.Gauge // 0=closed, 1=open

	gatherer prometheus.Gatherer
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// uses a fresh private registry, which keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		BacktestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_backtests_total",
			Help: "Backtest runs executed (by strategy)",
		}, []string{"strategy"}),
		BacktestDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_backtest_duration_seconds",
			Help:    "Backtest simulation latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_predictions_total",
			Help: "Price forecasts produced (by method)",
		}, []string{"method"}),
		SentimentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_sentiment_total",
			Help: "Sentiment classifications (by bucket)",
		}, []string{"sentiment"}),
		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_indicator_compute_duration_seconds",
			Help:    "Indicator set compute latency per request",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_hits_total",
			Help: "Result cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_misses_total",
			Help: "Result cache misses",
		}),

		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_price_source_requests_total",
			Help: "Price history fetches (by source and result)",
		}, []string{"source", "result"}),
		SourceFetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_price_source_duration_seconds",
			Help:    "Price history fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),

		RunsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_runs_stored_total",
			Help: "Backtest runs written to the journal",
		}),
		SQLiteWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_sqlite_write_duration_seconds",
			Help:    "SQLite write latency",
			Buckets: prometheus.DefBuckets,
		}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_http_requests_total",
			Help: "HTTP requests served (by path and status code)",
		}, []string{"path", "code"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		}),

		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_stream_clients",
			Help: "Connected live stream clients",
		}),
		StreamMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_stream_messages_total",
			Help: "Messages pushed to live stream clients",
		}),
		SentimentShifts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_sentiment_shifts_total",
			Help: "Live sentiment bucket changes (by new bucket)",
		}, []string{"to"}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),

		MarketState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_market_state",
			Help: "KRX session state (0=closed, 1=open)",
		}),
	}

	reg.MustRegister(
		m.BacktestsTotal,
		m.BacktestDur,
		m.PredictionsTotal,
		m.SentimentTotal,
		m.IndicatorComputeDur,
		m.CacheHits,
		m.CacheMisses,
		m.SourceRequests,
		m.SourceFetchDur,
		m.RunsStored,
		m.SQLiteWriteDur,
		m.HTTPRequests,
		m.RateLimited,
		m.StreamClients,
		m.StreamMessages,
		m.SentimentShifts,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.MarketState,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// HealthStatus represents the service health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisEnabled   bool `json:"redis_enabled"`
	RedisConnected bool `json:"redis_connected"`
	SQLiteOK       bool `json:"sqlite_ok"`
	MarketOpen     bool `json:"market_open"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus(redisEnabled bool) *HealthStatus {
	return &HealthStatus{
		RedisEnabled: redisEnabled,
		StartedAt:    time.Now(),
	}
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetMarketOpen(v bool) {
	h.mu.Lock()
	h.MarketOpen = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx is done.
// A nil client or database is skipped.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	check := func() {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if rdb != nil {
			h.CheckRedis(probeCtx, rdb)
		}
		if sqlDB != nil {
			h.CheckSQLite(probeCtx, sqlDB)
		}
	}
	check()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint. Redis is optional: when it is
// disabled or down the service still computes, so only SQLite loss makes it
// unhealthy.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	if h.RedisEnabled && !h.RedisConnected {
		overallStatus = "degraded"
	}
	if !h.SQLiteOK {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		RedisEnabled    bool    `json:"redis_enabled"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		MarketOpen      bool    `json:"market_open"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisEnabled:    h.RedisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		MarketOpen:      h.MarketOpen,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}
