// Command analytics runs the stock analytics service and its one-shot
// computations.
//
// Usage:
//
//	analytics serve
//	analytics backtest 005930 --strategy=sma_crossover --capital=10000000
//	analytics predict --prices=100,102,104 --method=linear --forecast=5
//	analytics fetch 005930 000660 --bars=500
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"stock-analytics/config"
	"stock-analytics/internal/logger"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:          "analytics",
		Short:        "Stock analytics: indicators, backtests, predictions",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			logger.Init("stock-analytics", logger.ParseLevel(level))
		},
	}
	root.PersistentFlags().String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "Path to SQLite database")
	root.PersistentFlags().StringVar(&cfg.PriceSources, "sources", cfg.PriceSources, "Price sources in priority order")

	root.AddCommand(
		newServeCmd(cfg),
		newBacktestCmd(cfg),
		newPredictCmd(cfg),
		newSentimentCmd(cfg),
		newIndicatorsCmd(cfg),
		newSignalCmd(cfg),
		newPortfolioCmd(cfg),
		newRunsCmd(cfg),
		newFetchCmd(cfg),
		newWatchCmd(cfg),
	)
	return root
}
