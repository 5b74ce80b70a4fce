package model

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ── Storage Port Interfaces ──
// These interfaces decouple the analytics service from concrete storage
// (SQLite, Redis). Each implementation satisfies one or more of them.

// PriceReader loads chronological bar history.
type PriceReader interface {
	// ReadHistory returns up to limit most recent bars in ascending date order.
	// limit <= 0 returns the full history.
	ReadHistory(ctx context.Context, symbol string, limit int) ([]PricePoint, error)
}

// PriceWriter persists bar history.
type PriceWriter interface {
	// UpsertHistory inserts or replaces bars keyed by (symbol, date).
	UpsertHistory(ctx context.Context, symbol string, bars []PricePoint) (int, error)
}

// RunStore journals backtest runs.
type RunStore interface {
	SaveRun(ctx context.Context, run BacktestRun) error
	GetRun(ctx context.Context, id string) (BacktestRun, error)
	// ListRuns returns the newest runs first, optionally filtered by symbol.
	ListRuns(ctx context.Context, symbol string, limit int) ([]BacktestRun, error)
}

// ResultCache stores JSON-encodable computation results with a TTL.
type ResultCache interface {
	// Get decodes a cached value into dst. Returns false on miss or failure.
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any, ttl time.Duration)
}

// Publisher fans out live updates to external subscribers.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
