// Package analytics orchestrates price loading, result caching, the pure
// indicator/predict/backtest computations and the run journal.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stock-analytics/internal/indicator"
	"stock-analytics/internal/logger"
	"stock-analytics/internal/metrics"
	"stock-analytics/internal/model"
	"stock-analytics/internal/strategy"
)

// ErrInvalidInput marks request validation failures.
var ErrInvalidInput = errors.New("invalid input")

// HistorySource yields chronological bars for a symbol.
type HistorySource interface {
	History(ctx context.Context, symbol string, limit int) ([]model.PricePoint, error)
}

// Deps are the service's collaborators. Everything except Source is optional.
type Deps struct {
	Source  HistorySource
	Runs    model.RunStore
	Cache   model.ResultCache
	Presets map[string]strategy.Preset
	Metrics *metrics.Metrics
}

// Options tune service defaults.
type Options struct {
	HistoryBars    int
	DefaultCapital float64
	CacheTTL       time.Duration
	RunRetention   int
	Indicators     []indicator.Config
}

// Service is safe for concurrent use.
type Service struct {
	deps Deps
	opts Options
}

// New creates a Service.
func New(deps Deps, opts Options) *Service {
	if opts.HistoryBars <= 0 {
		opts.HistoryBars = 250
	}
	if opts.DefaultCapital <= 0 {
		opts.DefaultCapital = 10_000_000
	}
	if len(opts.Indicators) == 0 {
		opts.Indicators = indicator.DefaultConfigs()
	}
	if deps.Presets == nil {
		deps.Presets = map[string]strategy.Preset{}
	}
	return &Service{deps: deps, opts: opts}
}

// Presets returns the loaded strategy presets.
func (s *Service) Presets() map[string]strategy.Preset { return s.deps.Presets }

// Strategy resolves a preset or built-in strategy name with overrides.
func (s *Service) Strategy(name string, params strategy.Params) strategy.Strategy {
	return strategy.Resolve(s.deps.Presets, name, params)
}

// PriceInput selects a price history: inline prices, or a symbol whose
// history is loaded from the source.
type PriceInput struct {
	Symbol string    `json:"symbol,omitempty"`
	Prices []float64 `json:"prices,omitempty"`
	Dates  []string  `json:"dates,omitempty"`
	Bars   int       `json:"bars,omitempty"` // history window when loading by symbol
}

// Load resolves in to bars. Inline prices take precedence over the symbol.
func (s *Service) Load(ctx context.Context, in PriceInput) ([]model.PricePoint, error) {
	if len(in.Prices) > 0 {
		return model.FromCloses(in.Prices, in.Dates), nil
	}
	symbol := strings.TrimSpace(in.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol or prices required", ErrInvalidInput)
	}
	if s.deps.Source == nil {
		return nil, fmt.Errorf("%w: no price source configured", ErrInvalidInput)
	}
	limit := in.Bars
	if limit <= 0 {
		limit = s.opts.HistoryBars
	}
	bars, err := s.deps.Source.History(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded history", append(logger.LogWithRequest(ctx),
		slog.String("symbol", symbol), slog.Int("bars", len(bars)))...)
	return bars, nil
}

func (s *Service) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.deps.Cache == nil {
		return false
	}
	hit := s.deps.Cache.Get(ctx, key, dst)
	if s.deps.Metrics != nil {
		if hit {
			s.deps.Metrics.CacheHits.Inc()
		} else {
			s.deps.Metrics.CacheMisses.Inc()
		}
	}
	return hit
}

func (s *Service) cacheSet(ctx context.Context, key string, v any) {
	if s.deps.Cache == nil || s.opts.CacheTTL <= 0 {
		return
	}
	s.deps.Cache.Set(ctx, key, v, s.opts.CacheTTL)
}

// Runs lists journaled runs, newest first.
func (s *Service) Runs(ctx context.Context, symbol string, limit int) ([]model.BacktestRun, error) {
	if s.deps.Runs == nil {
		return []model.BacktestRun{}, nil
	}
	runs, err := s.deps.Runs.ListRuns(ctx, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if runs == nil {
		runs = []model.BacktestRun{}
	}
	return runs, nil
}

// Run loads one journaled run. Returns model.ErrNotFound when absent.
func (s *Service) Run(ctx context.Context, id string) (model.BacktestRun, error) {
	if s.deps.Runs == nil {
		return model.BacktestRun{}, model.ErrNotFound
	}
	return s.deps.Runs.GetRun(ctx, id)
}
