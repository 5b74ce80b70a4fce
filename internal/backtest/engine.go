// Package backtest replays a price history against a strategy on a
// single-position, all-in ledger and derives performance metrics.
//
// Run is a pure function: it holds no state between calls and is safe to
// call concurrently on different inputs.
package backtest

import (
	"math"

	"stock-analytics/internal/indicator"
	"stock-analytics/internal/model"
	"stock-analytics/internal/portfolio"
	"stock-analytics/internal/strategy"
)

// DefaultInitialCapital matches the dashboard's default simulation budget.
const DefaultInitialCapital = 10_000_000

// Run simulates s over prices. dates[i], when present, labels transactions
// on bar i. The trajectory holds len(prices)+1 values: the seed capital
// followed by the mark-to-market value after every bar. Bars with a
// non-positive or non-finite price trade nothing and repeat the previous
// value. NaN, infinite or negative capital is treated as 0.
func Run(prices []float64, dates []string, initialCapital float64, s strategy.Strategy) model.BacktestResult {
	if initialCapital < 0 || math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) {
		initialCapital = 0
	}
	s = strategy.Sanitize(s)

	actions := strategy.Evaluate(s, prices)
	ledger := portfolio.NewLedger(initialCapital)
	trajectory := make([]float64, 0, len(prices)+1)
	trajectory = append(trajectory, initialCapital)

	for i, price := range prices {
		if !validPrice(price) {
			trajectory = append(trajectory, trajectory[len(trajectory)-1])
			continue
		}
		date := ""
		if i < len(dates) {
			date = dates[i]
		}
		switch actions[i] {
		case strategy.Buy:
			ledger.BuyAll(date, price)
		case strategy.Sell:
			ledger.Liquidate(date, price)
		}
		trajectory = append(trajectory, ledger.Value(price))
	}

	res := metrics(ledger.Transactions(), trajectory)
	res.Strategy = string(s.Kind())
	res.Bars = len(prices)
	res.FinalCash = ledger.Cash()
	res.FinalShares = ledger.Shares()
	return res
}

// RunNamed resolves a strategy by wire name, falling back to the SMA
// crossover for unknown names.
func RunNamed(prices []float64, dates []string, initialCapital float64, name string) model.BacktestResult {
	return Run(prices, dates, initialCapital, strategy.Parse(name))
}

// RunBars is Run over a bar history.
func RunBars(bars []model.PricePoint, initialCapital float64, s strategy.Strategy) model.BacktestResult {
	return Run(model.Closes(bars), model.Dates(bars), initialCapital, s)
}

func metrics(txs []model.Transaction, trajectory []float64) model.BacktestResult {
	start := trajectory[0]
	end := trajectory[len(trajectory)-1]

	res := model.BacktestResult{
		StartValue:     start,
		EndValue:       end,
		Transactions:   txs,
		PortfolioValue: trajectory,
	}
	if start != 0 {
		res.TotalReturn = (end - start) / start * 100
	}

	returns := make([]float64, 0, len(trajectory)-1)
	for i := 1; i < len(trajectory); i++ {
		r := 0.0
		if prev := trajectory[i-1]; prev != 0 {
			r = (trajectory[i] - prev) / prev
		}
		returns = append(returns, r)
	}

	// Positions never overlap, so the entry before a SELL is its BUY.
	wins := 0
	for i, tx := range txs {
		if tx.Type != model.TxSell {
			continue
		}
		res.TotalTrades++
		entry := 0.0
		if i > 0 {
			entry = txs[i-1].Price
		}
		if tx.Price > entry {
			wins++
		}
	}
	if res.TotalTrades > 0 {
		res.WinRate = float64(wins) / float64(res.TotalTrades) * 100
	}

	res.SharpeRatio = indicator.SharpeRatio(returns, indicator.DefaultRiskFreeRate)
	res.MaxDrawdown = indicator.MaxDrawdown(trajectory) * 100
	return res
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
