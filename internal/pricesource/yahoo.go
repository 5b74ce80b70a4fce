package pricesource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"golang.org/x/time/rate"

	"stock-analytics/internal/model"
)

const defaultYahooDays = 250

// Yahoo fetches daily bars from the Yahoo Finance chart API. Bare KRX codes
// get Suffix appended (".KS" for KOSPI, ".KQ" for KOSDAQ).
type Yahoo struct {
	Suffix  string
	limiter *rate.Limiter
}

// NewYahoo creates a Yahoo source allowing rps requests per second.
func NewYahoo(suffix string, rps float64) *Yahoo {
	if rps <= 0 {
		rps = 2
	}
	return &Yahoo{Suffix: suffix, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (y *Yahoo) Name() string { return "yahoo" }

// Ticker maps a KRX code to its Yahoo ticker.
func (y *Yahoo) Ticker(symbol string) string {
	if y.Suffix == "" || strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + y.Suffix
}

func (y *Yahoo) History(ctx context.Context, symbol string, limit int) ([]model.PricePoint, error) {
	if y.limiter != nil {
		if err := y.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	days := limit
	if days <= 0 {
		days = defaultYahooDays
	}
	end := time.Now()
	// calendar span covering the requested trading days plus holidays
	start := end.AddDate(0, 0, -(days*7/5 + 10))

	iter := chart.Get(&chart.Params{
		Symbol:   y.Ticker(symbol),
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var bars []model.PricePoint
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := iter.Bar()
		closePx, _ := b.Close.Round(2).Float64()
		if closePx <= 0 {
			continue
		}
		high, _ := b.High.Round(2).Float64()
		low, _ := b.Low.Round(2).Float64()
		bars = append(bars, model.PricePoint{
			Date:   time.Unix(int64(b.Timestamp), 0).UTC().Format("2006-01-02"),
			Close:  closePx,
			High:   high,
			Low:    low,
			Volume: int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", y.Ticker(symbol), err)
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return lastN(bars, limit), nil
}
