package portfolio

import (
	"errors"
	"math"
	"testing"

	"stock-analytics/internal/model"
)

func TestAnalyze(t *testing.T) {
	holdings := []model.Holding{
		{Symbol: "A", Quantity: 10, AvgPrice: 40, Price: 50},  // 500
		{Symbol: "B", Quantity: 5, AvgPrice: 60, Price: 60},   // 300
		{Symbol: "C", Quantity: 1, AvgPrice: 100, Price: 100}, // 100
		{Symbol: "D", Quantity: 1, AvgPrice: 100, Price: 100}, // 100
		{Symbol: "E", Quantity: 0, AvgPrice: 10, Price: 10},   // ignored
	}
	res, err := Analyze(holdings, 1.2)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalValue != 1000 || res.TotalCost != 900 || res.TotalPnL != 100 {
		t.Errorf("totals %+v", res)
	}
	if len(res.Weights) != 4 || res.Weights[0].Symbol != "A" || res.Weights[0].Weight != 50 {
		t.Fatalf("weights %+v", res.Weights)
	}
	// HHI = 0.25 + 0.09 + 0.01 + 0.01 = 0.36 → 64
	if res.Diversification != 64 {
		t.Errorf("diversification=%d, want 64", res.Diversification)
	}
	// 50 + 30 + 10
	if res.Concentration != 90 {
		t.Errorf("concentration=%.0f, want 90", res.Concentration)
	}
	if math.Abs(res.Weights[0].PnLPct-25) > 1e-9 {
		t.Errorf("A pnl%%=%.2f", res.Weights[0].PnLPct)
	}

	want := []float64{-12, -6, 0, 6, 12}
	for i, s := range res.Scenarios {
		if math.Abs(s.PortfolioReturn-want[i]) > 1e-9 {
			t.Errorf("scenario %s: %.2f, want %.2f", s.Label, s.PortfolioReturn, want[i])
		}
	}
	if math.Abs(res.Scenarios[0].ValueChange+120) > 1e-9 {
		t.Errorf("bear value change %.2f", res.Scenarios[0].ValueChange)
	}
}

func TestAnalyze_DefaultBetaAndEmpty(t *testing.T) {
	res, err := Analyze([]model.Holding{{Symbol: "A", Quantity: 1, Price: 10}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Beta != DefaultBeta || res.Diversification != 0 || res.Concentration != 100 {
		t.Errorf("single holding %+v", res)
	}
	if _, err := Analyze(nil, 1); !errors.Is(err, ErrEmptyPortfolio) {
		t.Errorf("err=%v, want ErrEmptyPortfolio", err)
	}
}
