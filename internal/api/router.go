// Package api exposes the analytics service over HTTP and a websocket
// live stream.
package api

import (
	"net/http"

	"stock-analytics/internal/analytics"
	"stock-analytics/internal/metrics"
)

// Deps are the router's collaborators. Only Service is required.
type Deps struct {
	Service *analytics.Service
	Metrics *metrics.Metrics
	Health  http.Handler
	Stream  *Stream
	Limiter *IPRateLimiter
}

// NewRouter sets up HTTP routes for the API server.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	h := &handlers{svc: d.Service}

	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, withRequestMetrics(d.Metrics, pattern, fn))
	}

	route("/api/v1/health", h.health)
	route("/api/v1/backtest", h.backtest)
	route("/api/v1/backtest/runs", h.runs)
	route("/api/v1/predict", h.predict)
	route("/api/v1/sentiment", h.sentiment)
	route("/api/v1/indicators", h.indicators)
	route("/api/v1/signal", h.signal)
	route("/api/v1/strategies", h.strategies)
	route("/api/v1/portfolio/analyze", h.portfolio)

	if d.Stream != nil {
		mux.Handle("/api/v1/stream", withRequestMetrics(d.Metrics, "/api/v1/stream", d.Stream))
	}
	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics.Handler())
	}
	if d.Health != nil {
		mux.Handle("/healthz", d.Health)
	}

	return withRequestID(withCORS(withRateLimit(d.Limiter, d.Metrics, mux)))
}
