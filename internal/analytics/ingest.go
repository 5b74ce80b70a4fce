package analytics

import (
	"context"
	"fmt"
	"log"

	"stock-analytics/internal/model"
)

// Ingest copies up to limit bars of symbol's history from src into w.
// Returns the number of bars written.
func Ingest(ctx context.Context, src HistorySource, w model.PriceWriter, symbol string, limit int) (int, error) {
	bars, err := src.History(ctx, symbol, limit)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	n, err := w.UpsertHistory(ctx, symbol, bars)
	if err != nil {
		return 0, fmt.Errorf("store %s: %w", symbol, err)
	}
	log.Printf("[ingest] %s: stored %d of %d bars", symbol, n, len(bars))
	return n, nil
}
