package indicator

// RSIStream calculates the Relative Strength Index using Wilder's smoothing.
// Update is O(1) per price.
type RSIStream struct {
	period    int
	count     int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

// NewRSIStream creates a new streaming RSI with the given period (typically 14).
func NewRSIStream(period int) *RSIStream {
	if period < 1 {
		period = 1
	}
	return &RSIStream{period: period}
}

func (r *RSIStream) Name() string { return "RSI" }

func (r *RSIStream) Update(price float64) {
	r.count++

	if r.count == 1 {
		// First price: no delta yet
		r.prevClose = price
		return
	}

	delta := price - r.prevClose
	r.prevClose = price
	gain, loss := splitDelta(delta)

	if r.count <= r.period+1 {
		// Accumulation phase: build initial averages
		r.avgGain += gain
		r.avgLoss += loss

		if r.count == r.period+1 {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
			r.current = rsiFrom(r.avgGain, r.avgLoss)
		}
		return
	}

	// Wilder's smoothing: avg = (prevAvg * (period-1) + current) / period
	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	r.current = rsiFrom(r.avgGain, r.avgLoss)
}

func (r *RSIStream) Value() float64 { return r.current }
func (r *RSIStream) Ready() bool    { return r.count > r.period }

// Peek computes what RSI would be with an additional price without mutating state.
func (r *RSIStream) Peek(price float64) float64 {
	if r.count <= r.period {
		return r.current
	}
	gain, loss := splitDelta(price - r.prevClose)
	p := float64(r.period)
	ag := (r.avgGain*(p-1) + gain) / p
	al := (r.avgLoss*(p-1) + loss) / p
	return rsiFrom(ag, al)
}

func splitDelta(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// RSI seeds average gain/loss from the first period deltas and emits one
// value per later delta. The seed value itself is not emitted, so the output
// length is len(prices)-1-period and value i belongs to bar i+period+1.
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+2 {
		return []float64{}
	}
	out := make([]float64, 0, len(prices)-1-period)
	r := NewRSIStream(period)
	for i, p := range prices {
		r.Update(p)
		if i >= period+1 {
			out = append(out, r.Value())
		}
	}
	return out
}
