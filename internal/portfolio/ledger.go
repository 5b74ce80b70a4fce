// Package portfolio holds the simulated cash/position book used by
// backtests and the holdings analysis shown on the portfolio panel.
package portfolio

import (
	"math"

	"stock-analytics/internal/model"
)

// Ledger is a single-instrument, cash-settled book: either flat or holding
// one long position bought with all available cash. Not safe for concurrent
// use; each backtest run owns its own Ledger.
type Ledger struct {
	cash   float64
	shares int64
	txs    []model.Transaction
}

// NewLedger opens a flat book with the given cash.
func NewLedger(cash float64) *Ledger {
	return &Ledger{cash: cash, txs: make([]model.Transaction, 0, 16)}
}

func (l *Ledger) Cash() float64   { return l.cash }
func (l *Ledger) Shares() int64   { return l.shares }
func (l *Ledger) Flat() bool      { return l.shares == 0 }
func (l *Ledger) Holding() bool   { return l.shares > 0 }
func (l *Ledger) TradeCount() int { return len(l.txs) }

// Value marks the book to market at price.
func (l *Ledger) Value(price float64) float64 {
	return l.cash + float64(l.shares)*price
}

// BuyAll spends cash on floor(cash/price) shares. It is a no-op returning
// false when already holding, when price is not a positive finite number,
// or when not even one share is affordable.
func (l *Ledger) BuyAll(date string, price float64) bool {
	if !l.Flat() || !validPrice(price) {
		return false
	}
	qty := math.Floor(l.cash / price)
	if qty < 1 || qty > math.MaxInt64/2 {
		return false
	}
	shares := int64(qty)
	l.cash -= float64(shares) * price
	l.shares = shares
	l.txs = append(l.txs, model.Transaction{Date: date, Type: model.TxBuy, Price: price, Shares: shares})
	return true
}

// Liquidate sells the whole position at price. No-op returning false when
// flat or when price is invalid.
func (l *Ledger) Liquidate(date string, price float64) bool {
	if !l.Holding() || !validPrice(price) {
		return false
	}
	l.cash += float64(l.shares) * price
	l.txs = append(l.txs, model.Transaction{Date: date, Type: model.TxSell, Price: price, Shares: l.shares})
	l.shares = 0
	return true
}

// Transactions returns a copy of the append-only transaction log.
func (l *Ledger) Transactions() []model.Transaction {
	cp := make([]model.Transaction, len(l.txs))
	copy(cp, l.txs)
	return cp
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
