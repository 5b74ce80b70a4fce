package indicator

import "math"

// StochasticResult holds smoothed %K and %D. D is shorter than K by
// smoothD-1; see StochasticOffsets.
type StochasticResult struct {
	K []float64 `json:"k"`
	D []float64 `json:"d"`
}

// Stochastic computes raw %K over each trailing window, smooths it with an
// SMA of width smoothK and derives %D as an SMA of width smoothD. A window
// whose highest high equals its lowest low yields a raw %K of 50.
func Stochastic(highs, lows, closes []float64, period, smoothK, smoothD int) StochasticResult {
	n := min(len(highs), len(lows), len(closes))
	if period <= 0 || smoothK <= 0 || smoothD <= 0 || n < period {
		return StochasticResult{K: []float64{}, D: []float64{}}
	}

	raw := make([]float64, 0, n-period+1)
	for i := period - 1; i < n; i++ {
		hh, ll := math.Inf(-1), math.Inf(1)
		for j := i - period + 1; j <= i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			raw = append(raw, 50)
			continue
		}
		raw = append(raw, (closes[i]-ll)/(hh-ll)*100)
	}

	k := SMA(raw, smoothK)
	return StochasticResult{K: k, D: SMA(k, smoothD)}
}

// CCI computes the Commodity Channel Index over typical price (h+l+c)/3.
// A window with zero mean deviation yields 0.
func CCI(highs, lows, closes []float64, period int) []float64 {
	n := min(len(highs), len(lows), len(closes))
	if period <= 0 || n < period {
		return []float64{}
	}

	tp := make([]float64, n)
	for i := 0; i < n; i++ {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}

	out := make([]float64, 0, n-period+1)
	for i := period - 1; i < n; i++ {
		window := tp[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		dev := 0.0
		for _, v := range window {
			dev += math.Abs(v - mean)
		}
		dev /= float64(period)

		if dev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (tp[i]-mean)/(0.015*dev))
	}
	return out
}
