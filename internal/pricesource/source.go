// Package pricesource loads chronological daily price history for a symbol
// from stored history, Yahoo Finance, or a deterministic synthetic walk.
package pricesource

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"stock-analytics/internal/metrics"
	"stock-analytics/internal/model"
)

// ErrNoData is returned when no source produced history for a symbol.
var ErrNoData = errors.New("no price history")

// Source yields up to limit most recent daily bars in ascending date order.
// limit <= 0 lets the source choose its default window.
type Source interface {
	Name() string
	History(ctx context.Context, symbol string, limit int) ([]model.PricePoint, error)
}

// Stored serves history persisted in the local database.
type Stored struct {
	Reader model.PriceReader
}

func (s *Stored) Name() string { return "sqlite" }

func (s *Stored) History(ctx context.Context, symbol string, limit int) ([]model.PricePoint, error) {
	bars, err := s.Reader.ReadHistory(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return bars, nil
}

// Chain tries each source in order; the first to return bars wins.
type Chain struct {
	sources []Source
	prom    *metrics.Metrics
}

// NewChain builds a chain. prom may be nil.
func NewChain(prom *metrics.Metrics, sources ...Source) *Chain {
	return &Chain{sources: sources, prom: prom}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}

// History returns the first non-empty history. When every source fails the
// error wraps ErrNoData.
func (c *Chain) History(ctx context.Context, symbol string, limit int) ([]model.PricePoint, error) {
	var errs []string
	for _, s := range c.sources {
		start := time.Now()
		bars, err := s.History(ctx, symbol, limit)
		if c.prom != nil {
			c.prom.SourceFetchDur.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
		}
		switch {
		case err == nil && len(bars) > 0:
			c.observe(s.Name(), "ok")
			return bars, nil
		case err == nil || errors.Is(err, ErrNoData):
			c.observe(s.Name(), "empty")
		default:
			c.observe(s.Name(), "error")
			log.Printf("[pricesource] %s failed for %s: %v", s.Name(), symbol, err)
			errs = append(errs, s.Name()+": "+err.Error())
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w for %s (%s)", ErrNoData, symbol, strings.Join(errs, "; "))
	}
	return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
}

func (c *Chain) observe(source, result string) {
	if c.prom != nil {
		c.prom.SourceRequests.WithLabelValues(source, result).Inc()
	}
}

// lastN trims bars to the final n entries when n > 0.
func lastN(bars []model.PricePoint, n int) []model.PricePoint {
	if n > 0 && len(bars) > n {
		return bars[len(bars)-n:]
	}
	return bars
}
