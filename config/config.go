package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Infrastructure
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	HTTPAddr      string
	LogLevel      string

	// Price history sources, tried in order (e.g. "sqlite,yahoo,synthetic")
	PriceSources  string
	YahooSuffix   string // appended to bare KRX codes, e.g. ".KS"
	YahooRPS      float64
	HistoryBars   int
	SyntheticSeed int64

	// Analytics
	StrategyPresets string
	IndicatorSpecs  string
	DefaultCapital  float64
	CacheTTL        time.Duration
	RunRetention    int

	// Live stream
	StreamInterval    time.Duration
	StreamIgnoreHours bool
	StreamStrategy    string

	// HTTP rate limiting (per client IP)
	RateLimitRPS   float64
	RateLimitBurst int

	// Alerts
	WebhookURL       string
	TelegramBotToken string
	TelegramChatID   string
}

// Load reads configuration from a .env file (if present) and environment
// variables, with sensible defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	return &Config{
		RedisEnabled:  getEnvBool("REDIS_ENABLED", true),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SQLitePath:    getEnv("SQLITE_PATH", "data/analytics.db"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		PriceSources:  getEnv("PRICE_SOURCES", "sqlite,yahoo,synthetic"),
		YahooSuffix:   getEnv("YAHOO_SUFFIX", ".KS"),
		YahooRPS:      getEnvFloat("YAHOO_RPS", 2),
		HistoryBars:   getEnvInt("HISTORY_BARS", 250),
		SyntheticSeed: int64(getEnvInt("SYNTHETIC_SEED", 42)),

		StrategyPresets: getEnv("STRATEGY_PRESETS", "config/strategies.yaml"),
		IndicatorSpecs:  getEnv("INDICATOR_SPECS", "SMA:20,SMA:50,EMA:12,EMA:26,RSI:14,MACD,BB:20"),
		DefaultCapital:  getEnvFloat("DEFAULT_CAPITAL", 10_000_000),
		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),
		RunRetention:    getEnvInt("RUN_RETENTION", 1000),

		// The dashboard re-polled quotes every few seconds
		StreamInterval:    getEnvDuration("STREAM_INTERVAL", 5*time.Second),
		StreamIgnoreHours: getEnvBool("STREAM_IGNORE_HOURS", false),
		StreamStrategy:    getEnv("STREAM_STRATEGY", "sma_crossover"),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 50),

		WebhookURL:       getEnv("ALERT_WEBHOOK_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

// Sources splits PriceSources into a list of lowercase source names.
func (c *Config) Sources() []string {
	parts := strings.Split(c.PriceSources, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
