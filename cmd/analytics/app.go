package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"stock-analytics/config"
	"stock-analytics/internal/analytics"
	"stock-analytics/internal/indicator"
	"stock-analytics/internal/metrics"
	"stock-analytics/internal/pricesource"
	redisstore "stock-analytics/internal/store/redis"
	sqlitestore "stock-analytics/internal/store/sqlite"
	"stock-analytics/internal/strategy"
)

// app holds the wired service and the resources it owns.
type app struct {
	cfg    *config.Config
	prom   *metrics.Metrics
	store  *sqlitestore.Store
	redis  *redisstore.Client // nil when disabled or unreachable
	source *pricesource.Chain
	svc    *analytics.Service
}

// newApp opens SQLite, optionally Redis, and builds the analytics service.
func newApp(cfg *config.Config, withRedis bool) (*app, error) {
	a := &app{cfg: cfg, prom: metrics.NewMetrics(prometheus.NewRegistry())}

	store, err := sqlitestore.Open(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	a.store = store

	if withRedis && cfg.RedisEnabled {
		rc, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			// Redis only carries the cache and live fan-out; keep computing without it.
			log.Printf("[analytics] redis unavailable, continuing without cache: %v", err)
		} else {
			a.redis = rc
		}
	}

	a.source, err = pricesource.Build(cfg.Sources(), pricesource.Options{
		Store:         store,
		YahooSuffix:   cfg.YahooSuffix,
		YahooRPS:      cfg.YahooRPS,
		SyntheticSeed: cfg.SyntheticSeed,
	}, a.prom)
	if err != nil {
		a.Close()
		return nil, err
	}

	presets, err := strategy.LoadPresets(cfg.StrategyPresets)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("[analytics] no strategy presets at %s", cfg.StrategyPresets)
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("load presets: %w", err)
	default:
		log.Printf("[analytics] loaded %d strategy presets", len(presets))
	}

	deps := analytics.Deps{
		Source:  a.source,
		Runs:    store,
		Presets: presets,
		Metrics: a.prom,
	}
	if a.redis != nil {
		deps.Cache = a.redis
	}
	a.svc = analytics.New(deps, analytics.Options{
		HistoryBars:    cfg.HistoryBars,
		DefaultCapital: cfg.DefaultCapital,
		CacheTTL:       cfg.CacheTTL,
		RunRetention:   cfg.RunRetention,
		Indicators:     indicator.ParseSpecs(cfg.IndicatorSpecs),
	})
	return a, nil
}

// redisClient returns the raw client for health probes, or nil.
func (a *app) redisClient() *goredis.Client {
	if a.redis == nil {
		return nil
	}
	return a.redis.Redis()
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("[analytics] redis close: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("[analytics] sqlite close: %v", err)
		}
	}
}
