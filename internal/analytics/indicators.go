package analytics

import (
	"context"
	"time"

	"stock-analytics/internal/indicator"
	"stock-analytics/internal/model"
	"stock-analytics/internal/portfolio"
)

// IndicatorsRequest computes an indicator set. An empty Specs uses the
// service's configured set.
type IndicatorsRequest struct {
	PriceInput
	Specs string `json:"specs,omitempty"` // e.g. "SMA:20,RSI:14,MACD"
}

// IndicatorReport carries offset-aligned series over the source dates.
type IndicatorReport struct {
	Symbol string         `json:"symbol,omitempty"`
	Dates  []string       `json:"dates"`
	Prices []float64      `json:"prices"`
	Series []model.Series `json:"series"`
}

// Indicators computes the requested indicator series.
func (s *Service) Indicators(ctx context.Context, req IndicatorsRequest) (IndicatorReport, error) {
	bars, err := s.Load(ctx, req.PriceInput)
	if err != nil {
		return IndicatorReport{}, err
	}
	configs := s.opts.Indicators
	if req.Specs != "" {
		configs = indicator.ParseSpecs(req.Specs)
	}

	start := time.Now()
	series := indicator.Compute(bars, configs)
	if s.deps.Metrics != nil {
		s.deps.Metrics.IndicatorComputeDur.Observe(time.Since(start).Seconds())
	}
	return IndicatorReport{
		Symbol: req.Symbol,
		Dates:  model.Dates(bars),
		Prices: model.Closes(bars),
		Series: series,
	}, nil
}

// IndicatorConfigs returns the configured default indicator set.
func (s *Service) IndicatorConfigs() []indicator.Config { return s.opts.Indicators }

// PortfolioRequest is a set of holdings with an optional market beta.
type PortfolioRequest struct {
	Holdings []model.Holding `json:"holdings"`
	Beta     float64         `json:"beta,omitempty"`
}

// Portfolio analyses holdings. Returns portfolio.ErrEmptyPortfolio when no
// holding carries value.
func (s *Service) Portfolio(ctx context.Context, req PortfolioRequest) (model.PortfolioAnalysis, error) {
	return portfolio.Analyze(req.Holdings, req.Beta)
}
