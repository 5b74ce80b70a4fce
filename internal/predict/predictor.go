// Package predict produces naive short-horizon price forecasts and
// momentum/volatility/sentiment summaries from a closing price history.
package predict

import (
	"math"
	"strings"

	"stock-analytics/internal/model"
)

// Method selects a forecasting algorithm.
type Method string

const (
	Linear        Method = "linear"
	Exponential   Method = "exponential"
	MovingAverage Method = "moving_average"
)

// Defaults.
const (
	DefaultLookback   = 20
	DefaultForecast   = 5
	DefaultAlpha      = 0.3
	MomentumPeriod    = 10
	VolatilityPeriod  = 20
	sentimentLookback = 5
)

// ParseMethod maps a method name to a Method, falling back to Linear.
func ParseMethod(s string) Method {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case Exponential:
		return Exponential
	case MovingAverage:
		return MovingAverage
	default:
		return Linear
	}
}

// Predictor wraps one price history. mean and stdDev are computed once at
// construction for Normalize/Denormalize.
type Predictor struct {
	prices []float64
	mean   float64
	stdDev float64
}

// New copies prices and precomputes their mean and population stdDev.
func New(prices []float64) *Predictor {
	p := &Predictor{prices: append([]float64(nil), prices...)}
	p.mean, p.stdDev = meanStd(p.prices)
	return p
}

func (p *Predictor) Mean() float64   { return p.mean }
func (p *Predictor) StdDev() float64 { return p.stdDev }

// Normalize returns the z-score of v, or 0 for a zero-variance history.
func (p *Predictor) Normalize(v float64) float64 {
	if p.stdDev == 0 {
		return 0
	}
	return (v - p.mean) / p.stdDev
}

// Denormalize maps a z-score back to price space, or 0 for a zero-variance history.
func (p *Predictor) Denormalize(z float64) float64 {
	if p.stdDev == 0 {
		return 0
	}
	return z*p.stdDev + p.mean
}

// Predict dispatches to the selected method. Non-positive lookback and
// forecast fall back to the defaults.
func (p *Predictor) Predict(method Method, lookback, forecast int) []model.PredictionPoint {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if forecast <= 0 {
		forecast = DefaultForecast
	}
	switch method {
	case Exponential:
		return p.ExponentialSmoothing(DefaultAlpha, forecast)
	case MovingAverage:
		return p.MovingAverage(lookback, forecast)
	default:
		return p.LinearRegression(lookback, forecast)
	}
}

// LinearRegression fits OLS on the last lookback prices (x = 0..n-1) and
// extrapolates to x = n+1, n+2, ... so the first forecast sits two steps past
// the last fitted index. Day stays the 1-based forecast step. Every point
// carries the same confidence, 100 minus the fit's mean absolute error as a
// percent of the window mean.
func (p *Predictor) LinearRegression(lookback, forecast int) []model.PredictionPoint {
	recent := tail(p.prices, lookback)
	n := len(recent)
	if n == 0 || forecast <= 0 {
		return []model.PredictionPoint{}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range recent {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	slope := 0.0
	if den := fn*sumXX - sumX*sumX; den != 0 {
		slope = (fn*sumXY - sumX*sumY) / den
	}
	intercept := (sumY - slope*sumX) / fn
	conf := fitConfidence(recent, intercept, slope)

	out := make([]model.PredictionPoint, forecast)
	for i := range out {
		x := float64(n + i + 1)
		out[i] = model.PredictionPoint{
			Day:            i + 1,
			PredictedPrice: intercept + slope*x,
			Confidence:     conf,
		}
	}
	return out
}

// ExponentialSmoothing seeds at the last price and blends each step's
// previous forecast with that same last price.
func (p *Predictor) ExponentialSmoothing(alpha float64, forecast int) []model.PredictionPoint {
	if len(p.prices) == 0 || forecast <= 0 {
		return []model.PredictionPoint{}
	}
	last := p.prices[len(p.prices)-1]

	out := make([]model.PredictionPoint, forecast)
	prev := last
	for i := range out {
		if i > 0 {
			prev = alpha*prev + (1-alpha)*last
		}
		out[i] = model.PredictionPoint{
			Day:            i + 1,
			PredictedPrice: prev,
			Confidence:     clampPct(50 + float64(5-i)*5),
		}
	}
	return out
}

// MovingAverage projects the window mean forward along the window's
// first-to-last trend.
func (p *Predictor) MovingAverage(lookback, forecast int) []model.PredictionPoint {
	recent := tail(p.prices, lookback)
	n := len(recent)
	if n == 0 || forecast <= 0 {
		return []model.PredictionPoint{}
	}
	avg, _ := meanStd(recent)
	trend := (recent[n-1] - recent[0]) / float64(n)

	out := make([]model.PredictionPoint, forecast)
	for i := range out {
		out[i] = model.PredictionPoint{
			Day:            i + 1,
			PredictedPrice: avg + trend*float64(i+1),
			Confidence:     clampPct(45 + float64(5-i)*4),
		}
	}
	return out
}

// Momentum returns last minus first of the trailing window.
func (p *Predictor) Momentum(period int) float64 {
	recent := tail(p.prices, period)
	if len(recent) == 0 {
		return 0
	}
	return recent[len(recent)-1] - recent[0]
}

// Volatility returns the population stdDev of bar-over-bar returns in the
// trailing window, as a percentage. Returns from a zero price count as 0.
func (p *Predictor) Volatility(period int) float64 {
	recent := tail(p.prices, period)
	if len(recent) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(recent)-1)
	for i := 1; i < len(recent); i++ {
		r := 0.0
		if recent[i-1] != 0 {
			r = (recent[i] - recent[i-1]) / recent[i-1]
		}
		returns = append(returns, r)
	}
	_, sd := meanStd(returns)
	return sd * 100
}

// Sentiment classifies the percentage change over the last five bars.
func (p *Predictor) Sentiment() model.Sentiment {
	n := len(p.prices)
	score := 0.0
	if n > 0 {
		base := p.prices[max(0, n-sentimentLookback)]
		if base != 0 {
			score = (p.prices[n-1] - base) / base * 100
		}
	}
	return Classify(score)
}

// Classify buckets a percentage change.
func Classify(score float64) model.Sentiment {
	switch {
	case score > 5:
		return model.Sentiment{Score: score, Label: "Strong Bullish", Class: "bullish", Color: "#00ff00"}
	case score > 0:
		return model.Sentiment{Score: score, Label: "Bullish", Class: "mildly_bullish", Color: "#99ff99"}
	case score > -5:
		return model.Sentiment{Score: score, Label: "Bearish", Class: "mildly_bearish", Color: "#ff9999"}
	default:
		return model.Sentiment{Score: score, Label: "Strong Bearish", Class: "bearish", Color: "#ff0000"}
	}
}

// PredictPrice forecasts DefaultForecast points with the named method.
func PredictPrice(prices []float64, method string) []model.PredictionPoint {
	return New(prices).Predict(ParseMethod(method), DefaultLookback, DefaultForecast)
}

// GetMarketSentiment bundles sentiment, momentum and volatility.
func GetMarketSentiment(prices []float64) model.MarketSentiment {
	p := New(prices)
	return model.MarketSentiment{
		Sentiment:  p.Sentiment(),
		Momentum:   p.Momentum(MomentumPeriod),
		Volatility: p.Volatility(VolatilityPeriod),
	}
}

func fitConfidence(values []float64, intercept, slope float64) float64 {
	mean, _ := meanStd(values)
	if mean == 0 {
		return 0
	}
	mae := 0.0
	for i, v := range values {
		mae += math.Abs(v - (intercept + slope*float64(i)))
	}
	mae /= float64(len(values))
	return clampPct(100 - mae/mean*100)
}

func clampPct(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func tail(xs []float64, n int) []float64 {
	if n <= 0 || n >= len(xs) {
		return xs
	}
	return xs[len(xs)-n:]
}

func meanStd(xs []float64) (mean, sd float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	v := 0.0
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return mean, math.Sqrt(v / float64(len(xs)))
}
