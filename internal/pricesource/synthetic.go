package pricesource

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/cespare/xxhash/v2"

	"stock-analytics/internal/model"
)

const (
	DefaultSyntheticDays = 100
	defaultBasePrice     = 50000
)

// basePrices are reference KRX prices for common symbols.
var basePrices = map[string]float64{
	"005930": 72500,
	"000660": 134000,
	"035420": 205000,
	"035720": 54300,
	"005380": 185000,
	"207940": 52800,
	"051910": 75600,
	"090430": 23700,
	"003550": 82500,
	"068270": 98200,
}

// Synthetic generates a bounded random walk. The walk is a pure function of
// (Seed, symbol, End, limit).
type Synthetic struct {
	Seed int64
	End  time.Time // last bar date; zero means today (UTC)
}

func (s *Synthetic) Name() string { return "synthetic" }

func (s *Synthetic) History(ctx context.Context, symbol string, limit int) ([]model.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSyntheticDays
	}
	end := s.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	base, ok := basePrices[symbol]
	if !ok {
		base = float64(defaultBasePrice + int(xxhash.Sum64String(symbol)%100)*1000)
	}
	rng := rand.New(rand.NewSource(s.Seed ^ int64(xxhash.Sum64String(symbol)>>1)))

	bars := make([]model.PricePoint, limit)
	price := base
	floor := base * 0.8
	for i := 0; i < limit; i++ {
		change := (rng.Float64() - 0.5) * (base * 0.02)
		price = math.Max(price+change, floor)
		p := math.Round(price)
		bars[i] = model.PricePoint{
			Date:   end.AddDate(0, 0, i-limit+1).Format("2006-01-02"),
			Close:  p,
			High:   math.Round(p * 1.02),
			Low:    math.Round(p * 0.98),
			Volume: rng.Int63n(10_000_000),
		}
	}
	return bars, nil
}
