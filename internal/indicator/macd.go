package indicator

// MACDResult holds the three MACD outputs, all the same length and all
// offset by MACDOffset.
type MACDResult struct {
	MACD      []float64 `json:"macd"`
	Signal    []float64 `json:"signal"`
	Histogram []float64 `json:"histogram"`
}

// MACD computes EMA(fast)-EMA(slow), right-aligned on the most recent
// overlapping samples, its EMA(signal) and the histogram between the two.
func MACD(prices []float64, fast, slow, signal int) MACDResult {
	empty := MACDResult{MACD: []float64{}, Signal: []float64{}, Histogram: []float64{}}
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return empty
	}

	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)
	n := min(len(emaFast), len(emaSlow))
	if n == 0 {
		return empty
	}

	line := make([]float64, n)
	fo, so := len(emaFast)-n, len(emaSlow)-n
	for i := range line {
		line[i] = emaFast[fo+i] - emaSlow[so+i]
	}

	sig := EMA(line, signal)
	if len(sig) == 0 {
		return empty
	}

	lo := len(line) - len(sig)
	res := MACDResult{
		MACD:      make([]float64, len(sig)),
		Signal:    sig,
		Histogram: make([]float64, len(sig)),
	}
	for i := range sig {
		res.MACD[i] = line[lo+i]
		res.Histogram[i] = line[lo+i] - sig[i]
	}
	return res
}
