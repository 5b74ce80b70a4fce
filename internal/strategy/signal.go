package strategy

import (
	"fmt"

	"stock-analytics/internal/model"
)

// Signal is the strategy's reading of the most recent bar.
type Signal struct {
	Strategy Kind    `json:"strategy"`
	Symbol   string  `json:"symbol"`
	Action   Action  `json:"action"` // BUY, SELL, HOLD
	Bar      int     `json:"bar"`
	Date     string  `json:"date,omitempty"`
	Price    float64 `json:"price"`
	Reason   string  `json:"reason"`
}

// Latest evaluates s over bars and reports the condition on the last bar.
// Returns nil for an empty history.
func Latest(s Strategy, symbol string, bars []model.PricePoint) *Signal {
	if len(bars) == 0 {
		return nil
	}
	s = Sanitize(s)
	actions := Evaluate(s, model.Closes(bars))
	i := len(bars) - 1
	return &Signal{
		Strategy: s.Kind(),
		Symbol:   symbol,
		Action:   actions[i],
		Bar:      i,
		Date:     bars[i].Date,
		Price:    bars[i].Close,
		Reason:   reason(s, actions[i], len(bars)),
	}
}

func reason(s Strategy, a Action, bars int) string {
	if bars <= s.Start() {
		return fmt.Sprintf("warming up: %d/%d bars", bars, s.Start()+1)
	}
	switch v := s.(type) {
	case SMACrossover:
		switch a {
		case Buy:
			return fmt.Sprintf("SMA%d above SMA%d", v.FastPeriod, v.SlowPeriod)
		case Sell:
			return fmt.Sprintf("SMA%d below SMA%d", v.FastPeriod, v.SlowPeriod)
		}
	case RSIReversion:
		switch a {
		case Buy:
			return fmt.Sprintf("RSI%d below %.0f", v.Period, v.Oversold)
		case Sell:
			return fmt.Sprintf("RSI%d above %.0f", v.Period, v.Overbought)
		}
	case BollingerBreakout:
		switch a {
		case Buy:
			return "price below lower band"
		case Sell:
			return "price above upper band"
		}
	}
	return "no signal"
}
