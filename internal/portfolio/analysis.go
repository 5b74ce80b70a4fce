package portfolio

import (
	"errors"
	"math"
	"sort"

	"stock-analytics/internal/model"
)

// ErrEmptyPortfolio is returned when no holding has a positive value.
var ErrEmptyPortfolio = errors.New("portfolio has no valued holdings")

// DefaultBeta is used when the caller supplies no market beta.
const DefaultBeta = 1.0

var scenarioMoves = []struct {
	label string
	move  float64
}{
	{"Bear market (-10%)", -10},
	{"Mild bear (-5%)", -5},
	{"Sideways (0%)", 0},
	{"Mild bull (+5%)", 5},
	{"Bull market (+10%)", 10},
}

// Analyze computes holding weights, a Herfindahl-based diversification
// score, top-3 concentration and beta-scaled market scenarios. Holdings with
// non-positive quantity or price are ignored. beta <= 0 uses DefaultBeta.
func Analyze(holdings []model.Holding, beta float64) (model.PortfolioAnalysis, error) {
	if beta <= 0 || math.IsNaN(beta) || math.IsInf(beta, 0) {
		beta = DefaultBeta
	}

	var res model.PortfolioAnalysis
	valued := make([]model.Holding, 0, len(holdings))
	for _, h := range holdings {
		if h.Quantity <= 0 || h.Price <= 0 {
			continue
		}
		valued = append(valued, h)
		res.TotalValue += h.Value()
		res.TotalCost += h.Quantity * h.AvgPrice
	}
	if len(valued) == 0 || res.TotalValue == 0 {
		return model.PortfolioAnalysis{}, ErrEmptyPortfolio
	}
	res.TotalPnL = res.TotalValue - res.TotalCost

	hhi := 0.0
	res.Weights = make([]model.HoldingWeight, 0, len(valued))
	for _, h := range valued {
		w := h.Value() / res.TotalValue * 100
		hhi += (w / 100) * (w / 100)
		cost := h.Quantity * h.AvgPrice
		hw := model.HoldingWeight{
			Symbol: h.Symbol,
			Value:  h.Value(),
			Weight: w,
			PnL:    h.Value() - cost,
		}
		if cost > 0 {
			hw.PnLPct = (h.Value() - cost) / cost * 100
		}
		res.Weights = append(res.Weights, hw)
	}
	sort.SliceStable(res.Weights, func(i, j int) bool {
		return res.Weights[i].Weight > res.Weights[j].Weight
	})

	res.Diversification = int(math.Round((1 - hhi) * 100))

	top := 0.0
	for i := 0; i < len(res.Weights) && i < 3; i++ {
		top += res.Weights[i].Weight
	}
	res.Concentration = math.Round(top)

	res.Beta = beta
	res.Scenarios = make([]model.Scenario, len(scenarioMoves))
	for i, s := range scenarioMoves {
		ret := s.move * beta
		res.Scenarios[i] = model.Scenario{
			Label:           s.label,
			MarketMove:      s.move,
			PortfolioReturn: ret,
			ValueChange:     res.TotalValue * ret / 100,
		}
	}
	return res, nil
}
