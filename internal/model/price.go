package model

// PricePoint is one bar of a chronological price history. Index in the
// enclosing slice is the alignment key for every derived series.
type PricePoint struct {
	Date   string  `json:"date"`
	Close  float64 `json:"price"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Volume int64   `json:"volume,omitempty"`
}

// HighOrClose returns High, or Close when no high was recorded.
func (p PricePoint) HighOrClose() float64 {
	if p.High == 0 {
		return p.Close
	}
	return p.High
}

// LowOrClose returns Low, or Close when no low was recorded.
func (p PricePoint) LowOrClose() float64 {
	if p.Low == 0 {
		return p.Close
	}
	return p.Low
}

// Closes extracts the close sequence.
func Closes(bars []PricePoint) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high sequence, substituting Close for missing highs.
func Highs(bars []PricePoint) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.HighOrClose()
	}
	return out
}

// Lows extracts the low sequence, substituting Close for missing lows.
func Lows(bars []PricePoint) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.LowOrClose()
	}
	return out
}

// Dates extracts the date keys.
func Dates(bars []PricePoint) []string {
	out := make([]string, len(bars))
	for i, b := range bars {
		out[i] = b.Date
	}
	return out
}

// FromCloses builds bars from bare closes and optional parallel dates.
func FromCloses(closes []float64, dates []string) []PricePoint {
	out := make([]PricePoint, len(closes))
	for i, c := range closes {
		out[i].Close = c
		if i < len(dates) {
			out[i].Date = dates[i]
		}
	}
	return out
}
