package indicator

import "math"

// TradingPeriods is the annualisation factor used by SharpeRatio.
const TradingPeriods = 252

// SharpeRatio annualises (mean(returns) - riskFreeRate/252) / stdDev(returns)
// using population standard deviation. Empty or zero-variance input yields 0;
// a deviation below float rounding noise relative to the mean counts as zero.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean, sd := meanStd(returns)
	if math.IsNaN(sd) || sd <= 1e-12*math.Max(1, math.Abs(mean)) {
		return 0
	}
	return (mean - riskFreeRate/TradingPeriods) / sd * math.Sqrt(TradingPeriods)
}

// MaxDrawdown returns the largest peak-to-trough decline of prices as a
// fraction. For positive prices the result is in [0, 1); a price at or below
// zero after a positive peak is a total loss and yields 1. Non-positive peaks
// are skipped.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	peak := prices[0]
	worst := 0.0
	for _, p := range prices[1:] {
		if p > peak {
			peak = p
		}
		if peak <= 0 {
			continue
		}
		if dd := math.Min((peak-p)/peak, 1); dd > worst {
			worst = dd
		}
	}
	return worst
}
