package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"stock-analytics/internal/model"
)

// UpsertHistory inserts or replaces bars keyed by (symbol, date) in a single
// transaction. Returns the number of rows written.
func (s *Store) UpsertHistory(ctx context.Context, symbol string, bars []model.PricePoint) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO price_history (symbol, date, close, high, low, volume)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, b := range bars {
		if b.Date == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, symbol, b.Date, b.Close, b.High, b.Low, b.Volume); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("sqlite upsert %s %s: %w", symbol, b.Date, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Printf("[sqlite] committed %d bars for %s in %v", n, symbol, time.Since(start))
	return n, nil
}

// ReadHistory returns up to limit most recent bars for symbol in ascending
// date order. limit <= 0 returns the full history.
func (s *Store) ReadHistory(ctx context.Context, symbol string, limit int) ([]model.PricePoint, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, close, high, low, volume FROM (
			SELECT date, close, high, low, volume
			FROM price_history
			WHERE symbol = ?
			ORDER BY date DESC
			LIMIT ?
		) ORDER BY date ASC
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query price_history: %w", err)
	}
	defer rows.Close()

	var bars []model.PricePoint
	for rows.Next() {
		var (
			b         model.PricePoint
			high, low sql.NullFloat64
			volume    sql.NullInt64
		)
		if err := rows.Scan(&b.Date, &b.Close, &high, &low, &volume); err != nil {
			return nil, fmt.Errorf("sqlite scan price_history: %w", err)
		}
		b.High = high.Float64
		b.Low = low.Float64
		b.Volume = volume.Int64
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Symbols lists every symbol with stored history.
func (s *Store) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM price_history ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// LastDate returns the most recent stored date for symbol, or "" when none.
func (s *Store) LastDate(ctx context.Context, symbol string) (string, error) {
	var d sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM price_history WHERE symbol = ?`, symbol,
	).Scan(&d)
	if err != nil {
		return "", err
	}
	return d.String, nil
}
