package indicator

// EMAStream calculates Exponential Moving Average.
// O(1) per update; no window storage needed.
type EMAStream struct {
	period     int
	multiplier float64
	current    float64
	count      int
	sum        float64
}

// NewEMAStream creates a new streaming EMA with the given period.
func NewEMAStream(period int) *EMAStream {
	if period < 1 {
		period = 1
	}
	return &EMAStream{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *EMAStream) Name() string { return "EMA" }

func (e *EMAStream) Update(price float64) {
	e.count++

	if e.count <= e.period {
		// Accumulate for initial SMA seed
		e.sum += price
		if e.count == e.period {
			e.current = e.sum / float64(e.period)
		}
		return
	}

	// EMA = (Price * multiplier) + (EMA_prev * (1 - multiplier))
	e.current = (price * e.multiplier) + (e.current * (1 - e.multiplier))
}

func (e *EMAStream) Value() float64 { return e.current }
func (e *EMAStream) Ready() bool    { return e.count >= e.period }

// Peek computes what Value() would be with an additional price without mutating state.
func (e *EMAStream) Peek(price float64) float64 {
	if e.count < e.period-1 {
		return price
	}
	if e.count == e.period-1 {
		return (e.sum + price) / float64(e.period)
	}
	return (price * e.multiplier) + (e.current * (1 - e.multiplier))
}

// Reset clears the state for reuse.
func (e *EMAStream) Reset() {
	e.current = 0
	e.count = 0
	e.sum = 0
}

// EMA seeds with the simple average of the first period values, then applies
// the 2/(period+1) multiplier to every later value.
// Output length is len(prices)-period+1.
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}
	out := make([]float64, 0, len(prices)-period+1)
	e := NewEMAStream(period)
	for _, p := range prices {
		e.Update(p)
		if e.Ready() {
			out = append(out, e.Value())
		}
	}
	return out
}
