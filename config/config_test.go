package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HISTORY_BARS", "")
	t.Setenv("CACHE_TTL", "")
	cfg := Load()
	if cfg.HistoryBars != 250 || cfg.CacheTTL != 5*time.Minute || cfg.DefaultCapital != 10_000_000 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HISTORY_BARS", "500")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("STREAM_IGNORE_HOURS", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("REDIS_DB", "not-a-number")
	cfg := Load()
	if cfg.HistoryBars != 500 || cfg.CacheTTL != 30*time.Second || !cfg.StreamIgnoreHours || cfg.RateLimitRPS != 2.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("invalid int should fall back, got %d", cfg.RedisDB)
	}
}

func TestSources(t *testing.T) {
	cfg := &Config{PriceSources: " SQLite, ,yahoo,synthetic "}
	got := cfg.Sources()
	want := []string{"sqlite", "yahoo", "synthetic"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("source %d: %s, want %s", i, got[i], want[i])
		}
	}
}
