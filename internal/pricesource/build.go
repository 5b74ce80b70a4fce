package pricesource

import (
	"fmt"
	"log"

	"stock-analytics/internal/metrics"
	"stock-analytics/internal/model"
)

// Options carries the dependencies a named source may need.
type Options struct {
	Store         model.PriceReader // nil disables "sqlite"
	YahooSuffix   string
	YahooRPS      float64
	SyntheticSeed int64
}

// Build assembles a Chain from source names in priority order.
func Build(names []string, opts Options, prom *metrics.Metrics) (*Chain, error) {
	var sources []Source
	for _, name := range names {
		switch name {
		case "sqlite":
			if opts.Store == nil {
				log.Printf("[pricesource] sqlite source skipped: no store")
				continue
			}
			sources = append(sources, &Stored{Reader: opts.Store})
		case "yahoo":
			sources = append(sources, NewYahoo(opts.YahooSuffix, opts.YahooRPS))
		case "synthetic":
			sources = append(sources, &Synthetic{Seed: opts.SyntheticSeed})
		default:
			return nil, fmt.Errorf("unknown price source %q", name)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no price sources configured")
	}
	log.Printf("[pricesource] chain: %d sources", len(sources))
	return NewChain(prom, sources...), nil
}
