package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stock-analytics/config"
	"stock-analytics/internal/analytics"
	"stock-analytics/internal/pricesource"
	sqlitestore "stock-analytics/internal/store/sqlite"
)

// newFetchCmd downloads daily history from Yahoo Finance into SQLite so the
// "sqlite" source can serve it offline.
func newFetchCmd(cfg *config.Config) *cobra.Command {
	var bars int
	cmd := &cobra.Command{
		Use:   "fetch SYMBOL...",
		Short: "Download daily history from Yahoo Finance into SQLite",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := sqlitestore.Open(cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer store.Close()

			yahoo := pricesource.NewYahoo(cfg.YahooSuffix, cfg.YahooRPS)
			failed := 0
			for _, symbol := range args {
				n, err := analytics.Ingest(ctx, yahoo, store, symbol, bars)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					log.Printf("[fetch] %s: %v", symbol, err)
					failed++
					continue
				}
				last, _ := store.LastDate(ctx, symbol)
				log.Printf("[fetch] %s (%s): %d bars, last %s", symbol, yahoo.Ticker(symbol), n, last)
			}
			if failed > 0 {
				log.Printf("[fetch] %d of %d symbols failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&bars, "bars", 500, "Trading days to download per symbol")
	return cmd
}
