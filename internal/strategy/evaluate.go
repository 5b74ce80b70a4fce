package strategy

import (
	"stock-analytics/internal/indicator"
	"stock-analytics/internal/model"
)

// Action is the per-bar condition a strategy reports.
type Action string

const (
	Hold Action = "HOLD"
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// Evaluate returns one Action per bar. Bars before s.Start() or without the
// required indicator values are Hold.
func Evaluate(s Strategy, prices []float64) []Action {
	out := make([]Action, len(prices))
	for i := range out {
		out[i] = Hold
	}

	switch v := Sanitize(s).(type) {
	case SMACrossover:
		fast := model.NewSeries("fast", indicator.SMAOffset(v.FastPeriod), indicator.SMA(prices, v.FastPeriod))
		slow := model.NewSeries("slow", indicator.SMAOffset(v.SlowPeriod), indicator.SMA(prices, v.SlowPeriod))
		for i := v.Start(); i < len(prices); i++ {
			f, ok1 := fast.At(i)
			sl, ok2 := slow.At(i)
			if !ok1 || !ok2 {
				continue
			}
			switch {
			case f > sl:
				out[i] = Buy
			case f < sl:
				out[i] = Sell
			}
		}

	case RSIReversion:
		rsi := model.NewSeries("rsi", indicator.RSIOffset(v.Period), indicator.RSI(prices, v.Period))
		for i := v.Start(); i < len(prices); i++ {
			r, ok := rsi.At(i)
			if !ok {
				continue
			}
			switch {
			case r < v.Oversold:
				out[i] = Buy
			case r > v.Overbought:
				out[i] = Sell
			}
		}

	case BollingerBreakout:
		bands := indicator.BollingerBands(prices, v.Period, v.StdDev)
		off := indicator.BollingerOffset(v.Period)
		for i := v.Start(); i < len(prices); i++ {
			j := i - off
			if j < 0 || j >= len(bands) {
				continue
			}
			switch {
			case prices[i] < bands[j].Lower:
				out[i] = Buy
			case prices[i] > bands[j].Upper:
				out[i] = Sell
			}
		}
	}
	return out
}
