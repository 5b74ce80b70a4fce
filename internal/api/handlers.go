package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"stock-analytics/internal/analytics"
	"stock-analytics/internal/logger"
	"stock-analytics/internal/model"
	"stock-analytics/internal/portfolio"
	"stock-analytics/internal/pricesource"
	"stock-analytics/internal/strategy"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	svc *analytics.Service
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "stock-analytics",
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *handlers) backtest(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req analytics.BacktestRequest
	if !decode(w, r, &req) {
		return
	}
	run, err := h.svc.Backtest(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *handlers) runs(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	if id := q.Get("id"); id != "" {
		run, err := h.svc.Run(r.Context(), id)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
		return
	}
	runs, err := h.svc.Runs(r.Context(), q.Get("symbol"), queryInt(q.Get("limit"), 50, 1, 1000))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *handlers) predict(w http.ResponseWriter, r *http.Request) {
	var req analytics.PredictRequest
	switch r.Method {
	case http.MethodPost:
		if !decode(w, r, &req) {
			return
		}
	case http.MethodGet:
		in, ok := priceQuery(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		req = analytics.PredictRequest{
			PriceInput: in,
			Method:     q.Get("method"),
			Lookback:   queryInt(q.Get("lookback"), 0, 0, 1000),
			Forecast:   queryInt(q.Get("forecast"), 0, 0, 365),
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out, err := h.svc.Predict(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) sentiment(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	in, ok := priceQuery(w, r)
	if !ok {
		return
	}
	rep, err := h.svc.Sentiment(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handlers) indicators(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	in, ok := priceQuery(w, r)
	if !ok {
		return
	}
	rep, err := h.svc.Indicators(r.Context(), analytics.IndicatorsRequest{
		PriceInput: in,
		Specs:      r.URL.Query().Get("specs"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handlers) signal(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	in, ok := priceQuery(w, r)
	if !ok {
		return
	}
	sig, err := h.svc.Signal(r.Context(), in, r.URL.Query().Get("strategy"), nil)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

type strategyInfo struct {
	Name        string          `json:"name"`
	Type        strategy.Kind   `json:"type"`
	Description string          `json:"description,omitempty"`
	Parameters  strategy.Params `json:"parameters,omitempty"`
	Preset      bool            `json:"preset"`
}

func (h *handlers) strategies(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	out := []strategyInfo{
		{Name: string(strategy.KindSMACrossover), Type: strategy.KindSMACrossover},
		{Name: string(strategy.KindRSIReversion), Type: strategy.KindRSIReversion},
		{Name: string(strategy.KindBollingerBreakout), Type: strategy.KindBollingerBreakout},
	}
	presets := h.svc.Presets()
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := presets[name]
		out = append(out, strategyInfo{
			Name:        p.Name,
			Type:        p.Strategy().Kind(),
			Description: p.Description,
			Parameters:  p.Parameters,
			Preset:      true,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) portfolio(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req analytics.PortfolioRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Portfolio(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// priceQuery reads symbol, bars and an optional comma-separated prices list.
func priceQuery(w http.ResponseWriter, r *http.Request) (analytics.PriceInput, bool) {
	q := r.URL.Query()
	in := analytics.PriceInput{
		Symbol: strings.TrimSpace(q.Get("symbol")),
		Bars:   queryInt(q.Get("bars"), 0, 0, 5000),
	}
	if raw := q.Get("prices"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid price "+strconv.Quote(part))
				return in, false
			}
			in.Prices = append(in.Prices, v)
		}
	}
	return in, true
}

func queryInt(s string, fallback, lo, hi int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return fallback
	}
	return n
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method+", OPTIONS")
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// fail maps service errors to HTTP status codes.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, analytics.ErrInvalidInput), errors.Is(err, portfolio.ErrEmptyPortfolio):
		code = http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound), errors.Is(err, pricesource.ErrNoData):
		code = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	if code == http.StatusInternalServerError {
		slog.Error("request failed", append(logger.LogWithRequest(r.Context()),
			slog.String("path", r.URL.Path), slog.String("error", err.Error()))...)
	}
	writeError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
