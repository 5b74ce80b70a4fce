package model

// Series is a derived indicator sequence paired with its warm-up offset:
// Values[i] belongs to source bar i+Offset.
type Series struct {
	Name   string    `json:"name"`
	Offset int       `json:"offset"`
	Values []float64 `json:"values"`
}

// Point is one value of a Series addressed by its source bar index.
type Point struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// NewSeries pairs values with their offset.
func NewSeries(name string, offset int, values []float64) Series {
	if values == nil {
		values = []float64{}
	}
	return Series{Name: name, Offset: offset, Values: values}
}

// Len returns the number of emitted values.
func (s Series) Len() int { return len(s.Values) }

// At returns the value aligned to source bar `bar`.
func (s Series) At(bar int) (float64, bool) {
	i := bar - s.Offset
	if i < 0 || i >= len(s.Values) {
		return 0, false
	}
	return s.Values[i], true
}

// Last returns the most recent value and the source bar it belongs to.
func (s Series) Last() (Point, bool) {
	if len(s.Values) == 0 {
		return Point{}, false
	}
	i := len(s.Values) - 1
	return Point{Index: i + s.Offset, Value: s.Values[i]}, true
}

// Points returns the series as explicit (index, value) pairs.
func (s Series) Points() []Point {
	out := make([]Point, len(s.Values))
	for i, v := range s.Values {
		out[i] = Point{Index: i + s.Offset, Value: v}
	}
	return out
}

// IndicatorValue is a single latest-value reading of a streaming indicator.
type IndicatorValue struct {
	Name   string  `json:"name"` // e.g. "SMA_20", "RSI_14"
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
	Ready  bool    `json:"ready"` // true when indicator has enough data
	Live   bool    `json:"live"`  // true for previews of an unconfirmed price
}
