package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stock-analytics/config"
	"stock-analytics/internal/api"
	"stock-analytics/internal/model"
	redisstore "stock-analytics/internal/store/redis"
)

// newWatchCmd tails the live updates and alerts a running server publishes
// to Redis for a symbol.
func newWatchCmd(cfg *config.Config) *cobra.Command {
	var alertsOnly bool
	cmd := &cobra.Command{
		Use:   "watch SYMBOL",
		Short: "Print live updates and sentiment alerts published to Redis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rc, err := redisstore.New(redisstore.Config{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err != nil {
				return err
			}
			defer rc.Close()

			out := cmd.OutOrStdout()
			channels := []string{api.AlertChannel(symbol)}
			if !alertsOnly {
				channels = append(channels, redisstore.SentimentChannel(symbol))
				latest, err := rc.Latest(ctx, symbol)
				switch {
				case errors.Is(err, model.ErrNotFound):
					fmt.Fprintf(out, "no live update for %s yet\n", symbol)
				case err != nil:
					return err
				default:
					fmt.Fprintf(out, "%s\n", latest)
				}
			}

			sub, err := rc.Subscribe(ctx, channels...)
			if err != nil {
				return err
			}
			defer sub.Close()

			ch := sub.Channel()
			for {
				select {
				case <-ctx.Done():
					return nil
				case msg, ok := <-ch:
					if !ok {
						return nil
					}
					fmt.Fprintf(out, "[%s] %s\n", msg.Channel, msg.Payload)
				}
			}
		},
	}
	cmd.Flags().BoolVar(&alertsOnly, "alerts", false, "Only print sentiment shift alerts")
	return cmd
}
