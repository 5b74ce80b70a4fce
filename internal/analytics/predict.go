package analytics

import (
	"context"
	"fmt"
	"strconv"

	"stock-analytics/internal/model"
	"stock-analytics/internal/predict"
	"stock-analytics/internal/strategy"
)

// PredictRequest asks for a forecast over inline prices or a symbol.
type PredictRequest struct {
	PriceInput
	Method   string `json:"method,omitempty"`
	Lookback int    `json:"lookback,omitempty"`
	Forecast int    `json:"forecast,omitempty"`
}

// Prediction is a forecast together with its inputs' summary.
type Prediction struct {
	Symbol      string                  `json:"symbol,omitempty"`
	Method      predict.Method          `json:"method"`
	LastPrice   float64                 `json:"lastPrice"`
	Predictions []model.PredictionPoint `json:"predictions"`
}

// Predict forecasts future prices. Unknown methods fall back to linear
// regression; an empty history yields no predictions.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (Prediction, error) {
	bars, err := s.Load(ctx, req.PriceInput)
	if err != nil {
		return Prediction{}, err
	}
	lookback, forecast := req.Lookback, req.Forecast
	if lookback <= 0 {
		lookback = predict.DefaultLookback
	}
	if forecast <= 0 {
		forecast = predict.DefaultForecast
	}
	if forecast > 365 {
		return Prediction{}, fmt.Errorf("%w: forecast must be at most 365 days", ErrInvalidInput)
	}
	method := predict.ParseMethod(req.Method)
	prices := model.Closes(bars)

	out := Prediction{Symbol: req.Symbol, Method: method}
	if len(prices) > 0 {
		out.LastPrice = prices[len(prices)-1]
	}

	key := cacheKey("predict", string(method),
		strconv.Itoa(lookback), strconv.Itoa(forecast), hashFloats(prices))
	if !s.cacheGet(ctx, key, &out.Predictions) {
		out.Predictions = predict.New(prices).Predict(method, lookback, forecast)
		s.cacheSet(ctx, key, out.Predictions)
	}
	if out.Predictions == nil {
		out.Predictions = []model.PredictionPoint{}
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.PredictionsTotal.WithLabelValues(string(method)).Inc()
	}
	return out, nil
}

// SentimentReport is the market sentiment for a history.
type SentimentReport struct {
	Symbol string `json:"symbol,omitempty"`
	model.MarketSentiment
	LastPrice float64 `json:"lastPrice"`
	Date      string  `json:"date,omitempty"`
}

// Sentiment classifies the short-term trend of a history.
func (s *Service) Sentiment(ctx context.Context, in PriceInput) (SentimentReport, error) {
	bars, err := s.Load(ctx, in)
	if err != nil {
		return SentimentReport{}, err
	}
	return s.SentimentOf(in.Symbol, bars), nil
}

// SentimentOf classifies already-loaded bars.
func (s *Service) SentimentOf(symbol string, bars []model.PricePoint) SentimentReport {
	rep := SentimentReport{
		Symbol:          symbol,
		MarketSentiment: predict.GetMarketSentiment(model.Closes(bars)),
	}
	if n := len(bars); n > 0 {
		rep.LastPrice = bars[n-1].Close
		rep.Date = bars[n-1].Date
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.SentimentTotal.WithLabelValues(rep.Sentiment.Class).Inc()
	}
	return rep
}

// Signal reports the named strategy's condition on the latest bar.
func (s *Service) Signal(ctx context.Context, in PriceInput, name string, params strategy.Params) (*strategy.Signal, error) {
	bars, err := s.Load(ctx, in)
	if err != nil {
		return nil, err
	}
	sig := strategy.Latest(s.Strategy(name, params), in.Symbol, bars)
	if sig == nil {
		return nil, fmt.Errorf("%w: empty price history", ErrInvalidInput)
	}
	return sig, nil
}
