// Package indicator provides technical indicator calculations over price
// sequences.
//
// Batch functions (SMA, EMA, RSI, MACD, ...) are pure: they never mutate
// their input and return an empty result when the input is shorter than the
// lookback window. Streaming types implement the Indicator interface and are
// what the batch SMA/EMA/RSI run on internally.
package indicator

// Indicator is the interface for streaming technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA", "EMA").
	Name() string

	// Update feeds the next price and recalculates.
	Update(price float64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool

	// Peek computes what Value() would be if price were added next,
	// WITHOUT mutating internal state.
	Peek(price float64) float64
}

// Warm-up offsets: output index i of each batch function corresponds to
// input index i+offset.

func SMAOffset(period int) int       { return period - 1 }
func EMAOffset(period int) int       { return period - 1 }
func RSIOffset(period int) int       { return period + 1 }
func BollingerOffset(period int) int { return period - 1 }
func ATROffset(period int) int       { return period - 1 }
func CCIOffset(period int) int       { return period - 1 }

// MACDOffset is the offset of all three MACD outputs.
func MACDOffset(fast, slow, signal int) int {
	return max(fast, slow) - 1 + signal - 1
}

// StochasticOffsets returns the offsets of smoothed %K and %D.
func StochasticOffsets(period, smoothK, smoothD int) (k, d int) {
	k = period - 1 + smoothK - 1
	return k, k + smoothD - 1
}
