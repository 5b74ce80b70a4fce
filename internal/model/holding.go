package model

// Holding is one line of a user portfolio.
type Holding struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name,omitempty"`
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avgPrice"`
	Price    float64 `json:"currentPrice"`
}

// Value returns the market value of the holding.
func (h Holding) Value() float64 { return h.Quantity * h.Price }

// HoldingWeight is a holding's share of total portfolio value.
type HoldingWeight struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
	PnL    float64 `json:"pnl"`
	PnLPct float64 `json:"pnlPct"`
}

// Scenario is the projected portfolio impact of a market move.
type Scenario struct {
	Label           string  `json:"scenario"`
	MarketMove      float64 `json:"marketMove"`
	PortfolioReturn float64 `json:"portfolioReturn"`
	ValueChange     float64 `json:"valueChange"`
}

// PortfolioAnalysis summarises concentration and scenario risk.
type PortfolioAnalysis struct {
	TotalValue      float64         `json:"totalValue"`
	TotalCost       float64         `json:"totalCost"`
	TotalPnL        float64         `json:"totalPnl"`
	Weights         []HoldingWeight `json:"weights"`
	Diversification int             `json:"diversificationScore"`
	Concentration   float64         `json:"top3Concentration"`
	Beta            float64         `json:"beta"`
	Scenarios       []Scenario      `json:"scenarios"`
}
