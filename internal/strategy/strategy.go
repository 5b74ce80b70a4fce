// Package strategy defines the backtestable trading strategies.
//
// A Strategy is a closed set of parameterised variants. Evaluate turns a
// variant and a price history into one Action per bar; the backtest engine
// decides whether an Action can be acted on given its position.
package strategy

import "strings"

// Kind names a strategy variant on the wire.
type Kind string

const (
	KindSMACrossover      Kind = "sma_crossover"
	KindRSIReversion      Kind = "rsi_overbought"
	KindBollingerBreakout Kind = "bollinger_bands"
)

// Strategy is implemented only by the variants in this package.
type Strategy interface {
	// Kind returns the wire name of the variant.
	Kind() Kind

	// Start is the first bar on which the strategy may act.
	Start() int

	sealed()
}

// SMACrossover buys while the fast SMA is above the slow SMA and sells while
// it is below.
type SMACrossover struct {
	FastPeriod int `json:"fastPeriod" yaml:"fast_period"`
	SlowPeriod int `json:"slowPeriod" yaml:"slow_period"`
}

// RSIReversion buys below Oversold and sells above Overbought.
type RSIReversion struct {
	Period     int     `json:"period" yaml:"period"`
	Oversold   float64 `json:"oversold" yaml:"oversold"`
	Overbought float64 `json:"overbought" yaml:"overbought"`
}

// BollingerBreakout buys while price is below the lower band and sells while
// it is above the upper band.
type BollingerBreakout struct {
	Period int     `json:"period" yaml:"period"`
	StdDev float64 `json:"stdDev" yaml:"std_dev"`
}

func (SMACrossover) Kind() Kind      { return KindSMACrossover }
func (RSIReversion) Kind() Kind      { return KindRSIReversion }
func (BollingerBreakout) Kind() Kind { return KindBollingerBreakout }

func (s SMACrossover) Start() int      { return max(s.FastPeriod, s.SlowPeriod) }
func (s RSIReversion) Start() int      { return s.Period + 1 }
func (s BollingerBreakout) Start() int { return s.Period - 1 }

func (SMACrossover) sealed()      {}
func (RSIReversion) sealed()      {}
func (BollingerBreakout) sealed() {}

// Default variants.
func DefaultSMACrossover() SMACrossover { return SMACrossover{FastPeriod: 20, SlowPeriod: 50} }
func DefaultRSIReversion() RSIReversion {
	return RSIReversion{Period: 14, Oversold: 30, Overbought: 70}
}
func DefaultBollingerBreakout() BollingerBreakout {
	return BollingerBreakout{Period: 20, StdDev: 2}
}

// Default returns the fallback strategy.
func Default() Strategy { return DefaultSMACrossover() }

// Parse maps a wire name to its default variant. Unknown names fall back to
// the SMA crossover.
func Parse(name string) Strategy {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case KindRSIReversion:
		return DefaultRSIReversion()
	case KindBollingerBreakout:
		return DefaultBollingerBreakout()
	default:
		return Default()
	}
}

// Params are optional numeric overrides keyed by snake_case parameter name.
type Params map[string]float64

// Build returns the named variant with params applied. Missing or invalid
// parameters keep their defaults.
func Build(name string, params Params) Strategy {
	switch s := Parse(name).(type) {
	case SMACrossover:
		s.FastPeriod = params.intOr("fast_period", s.FastPeriod)
		s.SlowPeriod = params.intOr("slow_period", s.SlowPeriod)
		return Sanitize(s)
	case RSIReversion:
		s.Period = params.intOr("period", s.Period)
		s.Oversold = params.floatOr("oversold", s.Oversold)
		s.Overbought = params.floatOr("overbought", s.Overbought)
		return Sanitize(s)
	case BollingerBreakout:
		s.Period = params.intOr("period", s.Period)
		s.StdDev = params.floatOr("std_dev", s.StdDev)
		return Sanitize(s)
	default:
		return Default()
	}
}

// Sanitize replaces invalid parameters with defaults. A nil strategy becomes
// the default strategy.
func Sanitize(s Strategy) Strategy {
	switch v := s.(type) {
	case SMACrossover:
		d := DefaultSMACrossover()
		if v.FastPeriod <= 0 || v.SlowPeriod <= 0 {
			return d
		}
		return v
	case RSIReversion:
		d := DefaultRSIReversion()
		if v.Period <= 0 {
			v.Period = d.Period
		}
		if v.Oversold < 0 || v.Overbought > 100 || v.Oversold >= v.Overbought {
			v.Oversold, v.Overbought = d.Oversold, d.Overbought
		}
		return v
	case BollingerBreakout:
		d := DefaultBollingerBreakout()
		if v.Period <= 0 {
			v.Period = d.Period
		}
		if v.StdDev <= 0 {
			v.StdDev = d.StdDev
		}
		return v
	default:
		return Default()
	}
}

func (p Params) intOr(key string, def int) int {
	if v, ok := p[key]; ok && v > 0 {
		return int(v)
	}
	return def
}

func (p Params) floatOr(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}
