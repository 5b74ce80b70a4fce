package indicator

import (
	"log"
	"strconv"
	"strings"

	"stock-analytics/internal/model"
)

// Config specifies a single indicator to compute.
type Config struct {
	Type   string `json:"type" yaml:"type"` // "SMA", "EMA", "RSI", "MACD", "BB", "ATR", "STOCH", "CCI"
	Period int    `json:"period" yaml:"period"`
}

// Default parameters.
const (
	DefaultRSIPeriod    = 14
	DefaultMACDFast     = 12
	DefaultMACDSlow     = 26
	DefaultMACDSignal   = 9
	DefaultBBPeriod     = 20
	DefaultBBStdDev     = 2.0
	DefaultATRPeriod    = 14
	DefaultStochPeriod  = 14
	DefaultStochSmoothK = 3
	DefaultStochSmoothD = 3
	DefaultCCIPeriod    = 20
	DefaultRiskFreeRate = 0.02
)

var defaultPeriods = map[string]int{
	"SMA":   20,
	"EMA":   20,
	"RSI":   DefaultRSIPeriod,
	"MACD":  DefaultMACDSlow,
	"BB":    DefaultBBPeriod,
	"ATR":   DefaultATRPeriod,
	"STOCH": DefaultStochPeriod,
	"CCI":   DefaultCCIPeriod,
}

// DefaultConfigs is the dashboard's standard chart overlay set.
func DefaultConfigs() []Config {
	return []Config{
		{Type: "SMA", Period: 20},
		{Type: "SMA", Period: 50},
		{Type: "EMA", Period: 12},
		{Type: "EMA", Period: 26},
		{Type: "RSI", Period: DefaultRSIPeriod},
		{Type: "MACD", Period: DefaultMACDSlow},
		{Type: "BB", Period: DefaultBBPeriod},
	}
}

// ParseSpecs parses "SMA:20,EMA:9,RSI:14,MACD,BB:20" into configs. A missing
// or invalid period falls back to the type's default; unknown types are
// skipped. An empty or fully invalid spec yields DefaultConfigs.
func ParseSpecs(s string) []Config {
	if strings.TrimSpace(s) == "" {
		return DefaultConfigs()
	}

	var configs []Config
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tokens := strings.SplitN(part, ":", 2)
		typ := strings.ToUpper(strings.TrimSpace(tokens[0]))
		def, known := defaultPeriods[typ]
		if !known {
			log.Printf("[indicator] skipping unknown indicator spec: %q", part)
			continue
		}
		period := def
		if len(tokens) == 2 {
			p, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
			if err != nil || p <= 0 {
				log.Printf("[indicator] invalid period in %q, using %d", part, def)
			} else {
				period = p
			}
		}
		configs = append(configs, Config{Type: typ, Period: period})
	}
	if len(configs) == 0 {
		log.Println("[indicator] WARNING: no valid indicators parsed, using defaults")
		return DefaultConfigs()
	}
	return configs
}

// Compute evaluates every config over bars and returns offset-carrying
// series. Compound indicators produce several series (MACD, MACD_SIGNAL,
// MACD_HIST; BB_UPPER_n, BB_MIDDLE_n, BB_LOWER_n; STOCH_K_n, STOCH_D_n).
func Compute(bars []model.PricePoint, configs []Config) []model.Series {
	closes := model.Closes(bars)
	var highs, lows []float64
	hl := func() ([]float64, []float64) {
		if highs == nil {
			highs, lows = model.Highs(bars), model.Lows(bars)
		}
		return highs, lows
	}

	out := make([]model.Series, 0, len(configs))
	for _, c := range configs {
		p := c.Period
		suffix := "_" + strconv.Itoa(p)
		switch c.Type {
		case "SMA":
			out = append(out, model.NewSeries("SMA"+suffix, SMAOffset(p), SMA(closes, p)))
		case "EMA":
			out = append(out, model.NewSeries("EMA"+suffix, EMAOffset(p), EMA(closes, p)))
		case "RSI":
			out = append(out, model.NewSeries("RSI"+suffix, RSIOffset(p), RSI(closes, p)))
		case "MACD":
			m := MACD(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
			off := MACDOffset(DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
			out = append(out,
				model.NewSeries("MACD", off, m.MACD),
				model.NewSeries("MACD_SIGNAL", off, m.Signal),
				model.NewSeries("MACD_HIST", off, m.Histogram),
			)
		case "BB":
			bands := BollingerBands(closes, p, DefaultBBStdDev)
			upper := make([]float64, len(bands))
			middle := make([]float64, len(bands))
			lower := make([]float64, len(bands))
			for i, b := range bands {
				upper[i], middle[i], lower[i] = b.Upper, b.Middle, b.Lower
			}
			off := BollingerOffset(p)
			out = append(out,
				model.NewSeries("BB_UPPER"+suffix, off, upper),
				model.NewSeries("BB_MIDDLE"+suffix, off, middle),
				model.NewSeries("BB_LOWER"+suffix, off, lower),
			)
		case "ATR":
			h, l := hl()
			out = append(out, model.NewSeries("ATR"+suffix, ATROffset(p), ATR(h, l, closes, p)))
		case "STOCH":
			h, l := hl()
			st := Stochastic(h, l, closes, p, DefaultStochSmoothK, DefaultStochSmoothD)
			ko, do := StochasticOffsets(p, DefaultStochSmoothK, DefaultStochSmoothD)
			out = append(out,
				model.NewSeries("STOCH_K"+suffix, ko, st.K),
				model.NewSeries("STOCH_D"+suffix, do, st.D),
			)
		case "CCI":
			h, l := hl()
			out = append(out, model.NewSeries("CCI"+suffix, CCIOffset(p), CCI(h, l, closes, p)))
		}
	}
	return out
}

// Tracker keeps streaming SMA/EMA/RSI instances for one symbol so a live
// feed can update confirmed prices and preview unconfirmed ones.
// Not safe for concurrent use.
type Tracker struct {
	symbol     string
	indicators []Indicator
	configs    []Config
}

// NewTracker creates streaming instances for the streamable configs
// (SMA, EMA, RSI); other types are ignored.
func NewTracker(symbol string, configs []Config) *Tracker {
	t := &Tracker{symbol: symbol}
	for _, c := range configs {
		var ind Indicator
		switch c.Type {
		case "SMA":
			ind = NewSMAStream(c.Period)
		case "EMA":
			ind = NewEMAStream(c.Period)
		case "RSI":
			ind = NewRSIStream(c.Period)
		default:
			continue
		}
		t.indicators = append(t.indicators, ind)
		t.configs = append(t.configs, c)
	}
	return t
}

// Seed feeds a history of confirmed prices.
func (t *Tracker) Seed(prices []float64) {
	for _, p := range prices {
		t.Update(p)
	}
}

// Update feeds one confirmed price into every indicator.
func (t *Tracker) Update(price float64) []model.IndicatorValue {
	out := make([]model.IndicatorValue, 0, len(t.indicators))
	for i, ind := range t.indicators {
		ind.Update(price)
		out = append(out, t.value(i, ind.Value(), false))
	}
	return out
}

// Peek previews every indicator as if price were confirmed next.
// Does NOT mutate indicator state.
func (t *Tracker) Peek(price float64) []model.IndicatorValue {
	out := make([]model.IndicatorValue, 0, len(t.indicators))
	for i, ind := range t.indicators {
		out = append(out, t.value(i, ind.Peek(price), true))
	}
	return out
}

func (t *Tracker) value(i int, v float64, live bool) model.IndicatorValue {
	ind := t.indicators[i]
	return model.IndicatorValue{
		Name:   ind.Name() + "_" + strconv.Itoa(t.configs[i].Period),
		Symbol: t.symbol,
		Value:  v,
		Ready:  ind.Ready(),
		Live:   live,
	}
}
