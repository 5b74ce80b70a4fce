package model

import "time"

// TxType is the side of a simulated transaction.
type TxType string

const (
	TxBuy  TxType = "BUY"
	TxSell TxType = "SELL"
)

// Transaction is one simulated fill.
type Transaction struct {
	Date   string  `json:"date"`
	Type   TxType  `json:"type"`
	Price  float64 `json:"price"`
	Shares int64   `json:"shares"`
}

// BacktestResult is the immutable outcome of one backtest run.
// Percentages are expressed as percent (12.5 == 12.5%).
type BacktestResult struct {
	Strategy       string        `json:"strategy"`
	Bars           int           `json:"bars"`
	StartValue     float64       `json:"startValue"`
	EndValue       float64       `json:"endValue"`
	TotalReturn    float64       `json:"totalReturn"`
	TotalTrades    int           `json:"totalTrades"`
	WinRate        float64       `json:"winRate"`
	SharpeRatio    float64       `json:"sharpeRatio"`
	MaxDrawdown    float64       `json:"maxDrawdown"`
	FinalCash      float64       `json:"finalCash"`
	FinalShares    int64         `json:"finalShares"`
	Transactions   []Transaction `json:"transactions"`
	PortfolioValue []float64     `json:"portfolioValue"`
}

// BacktestRun is a persisted backtest together with its request context.
type BacktestRun struct {
	ID             string         `json:"id"`
	Symbol         string         `json:"symbol"`
	Strategy       string         `json:"strategy"`
	InitialCapital float64        `json:"initialCapital"`
	CreatedAt      time.Time      `json:"createdAt"`
	Result         BacktestResult `json:"result"`
}
