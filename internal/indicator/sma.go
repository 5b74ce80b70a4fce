package indicator

// SMAStream calculates Simple Moving Average over a rolling window.
// Uses a preallocated circular buffer for zero-allocation hot path.
type SMAStream struct {
	period  int
	buf     []float64 // preallocated circular buffer
	idx     int       // current write position
	count   int       // total values received
	sum     float64
	current float64
}

// NewSMAStream creates a new streaming SMA with the given period.
func NewSMAStream(period int) *SMAStream {
	if period < 1 {
		period = 1
	}
	return &SMAStream{
		period: period,
		buf:    make([]float64, period),
	}
}

func (s *SMAStream) Name() string { return "SMA" }

func (s *SMAStream) Update(price float64) {
	if s.count >= s.period {
		// Subtract the oldest value being overwritten
		s.sum -= s.buf[s.idx]
	}

	s.buf[s.idx] = price
	s.sum += price
	s.idx = (s.idx + 1) % s.period
	s.count++

	if s.count >= s.period {
		s.current = s.sum / float64(s.period)
	}
}

func (s *SMAStream) Value() float64 { return s.current }
func (s *SMAStream) Ready() bool    { return s.count >= s.period }

// Peek computes what Value() would be with an additional price without mutating state.
func (s *SMAStream) Peek(price float64) float64 {
	if s.count < s.period {
		// Not fully ready: partial average including this price
		return (s.sum + price) / float64(s.count+1)
	}
	// Preview: replace the oldest value (at idx) with new price
	return (s.sum - s.buf[s.idx] + price) / float64(s.period)
}

// Reset clears the state for reuse.
func (s *SMAStream) Reset() {
	s.idx = 0
	s.count = 0
	s.sum = 0
	s.current = 0
	for i := range s.buf {
		s.buf[i] = 0
	}
}

// SMA returns the arithmetic mean of every trailing window of size period.
// Output length is len(prices)-period+1, or zero when prices is too short.
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}
	out := make([]float64, 0, len(prices)-period+1)
	s := NewSMAStream(period)
	for _, p := range prices {
		s.Update(p)
		if s.Ready() {
			out = append(out, s.Value())
		}
	}
	return out
}
