package indicator

import "math"

// Band is one Bollinger Bands record.
type Band struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// BollingerBands returns one Band per trailing window: the window SMA plus and
// minus stdDev population standard deviations.
func BollingerBands(prices []float64, period int, stdDev float64) []Band {
	if period <= 0 || len(prices) < period {
		return []Band{}
	}
	out := make([]Band, 0, len(prices)-period+1)
	for i := period - 1; i < len(prices); i++ {
		window := prices[i-period+1 : i+1]
		mean, sd := meanStd(window)
		out = append(out, Band{
			Upper:  mean + sd*stdDev,
			Middle: mean,
			Lower:  mean - sd*stdDev,
		})
	}
	return out
}

// ATR computes Wilder's Average True Range. The first bar's true range is
// high-low; the seed is the mean of the first period true ranges.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := min(len(highs), len(lows), len(closes))
	if period <= 0 || n < period {
		return []float64{}
	}

	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := highs[i] - lows[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	out := make([]float64, 0, n-period+1)
	sum := 0.0
	for _, v := range tr[:period] {
		sum += v
	}
	atr := sum / float64(period)
	out = append(out, atr)

	p := float64(period)
	for i := period; i < n; i++ {
		atr = (atr*(p-1) + tr[i]) / p
		out = append(out, atr)
	}
	return out
}

// meanStd returns the mean and population standard deviation of xs. A
// window of identical values has exactly zero deviation.
func meanStd(xs []float64) (mean, sd float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	if allEqual(xs) {
		return xs[0], 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	variance := 0.0
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(xs)))
}

func allEqual(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
