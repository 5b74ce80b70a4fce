package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"stock-analytics/internal/model"
)

// Rounded returns a copy of r with the percentage metrics and Sharpe ratio
// rounded half away from zero to two decimal places for display.
func Rounded(r model.BacktestResult) model.BacktestResult {
	r.TotalReturn = round2(r.TotalReturn)
	r.WinRate = round2(r.WinRate)
	r.SharpeRatio = round2(r.SharpeRatio)
	r.MaxDrawdown = round2(r.MaxDrawdown)
	return r
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
