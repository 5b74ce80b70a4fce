package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stock-analytics/config"
	"stock-analytics/internal/api"
	"stock-analytics/internal/markethours"
	"stock-analytics/internal/metrics"
	"stock-analytics/internal/notification"
	redisstore "stock-analytics/internal/store/redis"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	cmd.Flags().BoolVar(&cfg.StreamIgnoreHours, "ignore-hours", cfg.StreamIgnoreHours, "Stream outside KRX trading hours")
	return cmd
}

func serve(cfg *config.Config) error {
	log.Println("[analytics] starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	health := metrics.NewHealthStatus(cfg.RedisEnabled)
	health.SetMarketOpen(markethours.IsMarketOpen(time.Now()))

	streamDeps := api.StreamDeps{
		Metrics:  a.prom,
		Notifier: buildNotifier(cfg),
	}
	rdb := a.redisClient()
	if a.redis != nil {
		watchBreaker(a.redis.Breaker(), a.prom, health)
		buffered := redisstore.NewBufferedPublisher(ctx, a.redis, 0)
		buffered.OnFlush = func(n int) {
			log.Printf("[analytics] replayed %d live updates after redis recovered", n)
		}
		streamDeps.Live = buffered
		streamDeps.Alerts = a.redis
	}
	health.StartLivenessChecker(ctx, rdb, a.store.DB(), 15*time.Second)

	stream := api.NewStream(ctx, a.svc, api.StreamConfig{
		Interval:    cfg.StreamInterval,
		IgnoreHours: cfg.StreamIgnoreHours,
		Strategy:    cfg.StreamStrategy,
	}, streamDeps)

	limiter := api.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go cleanupLimiter(ctx, limiter)
	go trackMarket(ctx, health)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Deps{
			Service: a.svc,
			Metrics: a.prom,
			Health:  health,
			Stream:  stream,
			Limiter: limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[analytics] listening on %s (%s)", cfg.HTTPAddr, markethours.StatusString(time.Now()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("[analytics] received %v, shutting down...", sig)
	case err := <-errCh:
		return err
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[analytics] shutdown: %v", err)
	}
	log.Println("[analytics] stopped")
	return nil
}

// buildNotifier fans alerts out to the log plus any configured webhook and
// Telegram chat.
func buildNotifier(cfg *config.Config) notification.Notifier {
	out := notification.Multi{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		out = append(out, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		out = append(out, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	log.Printf("[analytics] %d alert notifiers", len(out))
	return out
}

// watchBreaker mirrors breaker transitions into metrics and health.
func watchBreaker(cb *redisstore.CircuitBreaker, prom *metrics.Metrics, health *metrics.HealthStatus) {
	cb.OnStateChange(func(from, to redisstore.State) {
		prom.RedisCircuitBreakerState.Set(float64(to))
		if to == redisstore.StateOpen {
			prom.RedisCircuitBreakerTrips.Inc()
		}
		health.SetRedisConnected(to == redisstore.StateClosed)
	})
}

func cleanupLimiter(ctx context.Context, l *api.IPRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Cleanup(10 * time.Minute); n > 0 {
				log.Printf("[analytics] dropped %d idle rate limiters (%d active)", n, l.Size())
			}
		}
	}
}

func trackMarket(ctx context.Context, health *metrics.HealthStatus) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			health.SetMarketOpen(markethours.IsMarketOpen(now))
		}
	}
}
