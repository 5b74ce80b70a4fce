package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"stock-analytics/internal/backtest"
	"stock-analytics/internal/logger"
	"stock-analytics/internal/model"
	"stock-analytics/internal/strategy"
)

// BacktestRequest is a backtest over inline prices or a symbol's history.
type BacktestRequest struct {
	PriceInput
	Strategy       string          `json:"strategy"`
	Params         strategy.Params `json:"params,omitempty"`
	InitialCapital float64         `json:"initialCapital,omitempty"`
}

// Backtest runs the requested strategy and journals the run. The returned
// result is rounded to two decimals for presentation.
func (s *Service) Backtest(ctx context.Context, req BacktestRequest) (model.BacktestRun, error) {
	capital := req.InitialCapital
	if capital == 0 {
		capital = s.opts.DefaultCapital
	}
	if capital < 0 || math.IsNaN(capital) || math.IsInf(capital, 0) {
		return model.BacktestRun{}, fmt.Errorf("%w: initial capital must be a positive number", ErrInvalidInput)
	}

	bars, err := s.Load(ctx, req.PriceInput)
	if err != nil {
		return model.BacktestRun{}, err
	}
	strat := s.Strategy(req.Strategy, req.Params)
	prices, dates := model.Closes(bars), model.Dates(bars)

	key := cacheKey("backtest",
		fmt.Sprintf("%#v", strat),
		strconv.FormatFloat(capital, 'g', -1, 64),
		hashFloats(prices),
		hashStrings(dates),
	)

	var result model.BacktestResult
	if !s.cacheGet(ctx, key, &result) {
		start := time.Now()
		result = backtest.Rounded(backtest.Run(prices, dates, capital, strat))
		if s.deps.Metrics != nil {
			s.deps.Metrics.BacktestDur.Observe(time.Since(start).Seconds())
		}
		s.cacheSet(ctx, key, result)
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.BacktestsTotal.WithLabelValues(result.Strategy).Inc()
	}

	run := model.BacktestRun{
		ID:             uuid.NewString(),
		Symbol:         req.Symbol,
		Strategy:       result.Strategy,
		InitialCapital: capital,
		CreatedAt:      time.Now().UTC(),
		Result:         result,
	}
	s.journal(ctx, run)

	slog.Info("backtest complete", append(logger.LogWithRequest(ctx),
		slog.String("run_id", run.ID),
		slog.String("symbol", run.Symbol),
		slog.String("strategy", run.Strategy),
		slog.Int("bars", result.Bars),
		slog.Int("trades", result.TotalTrades),
		slog.Float64("return_pct", result.TotalReturn),
	)...)
	return run, nil
}

// journal persists run. Journal failures are logged and never fail the
// backtest itself.
func (s *Service) journal(ctx context.Context, run model.BacktestRun) {
	if s.deps.Runs == nil {
		return
	}
	start := time.Now()
	if err := s.deps.Runs.SaveRun(ctx, run); err != nil {
		slog.Error("journal run failed", append(logger.LogWithRequest(ctx),
			slog.String("run_id", run.ID), slog.String("error", err.Error()))...)
		return
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.SQLiteWriteDur.Observe(time.Since(start).Seconds())
		s.deps.Metrics.RunsStored.Inc()
	}

	if p, ok := s.deps.Runs.(interface {
		PruneRuns(ctx context.Context, keep int) (int64, error)
	}); ok && s.opts.RunRetention > 0 {
		if n, err := p.PruneRuns(ctx, s.opts.RunRetention); err != nil {
			slog.Warn("prune runs failed", slog.String("error", err.Error()))
		} else if n > 0 {
			slog.Debug("pruned runs", slog.Int64("deleted", n))
		}
	}
}
