package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stock-analytics/internal/model"
)

// SaveRun journals a backtest run. An existing run with the same ID is replaced.
func (s *Store) SaveRun(ctx context.Context, run model.BacktestRun) error {
	data, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO backtest_runs
			(id, symbol, strategy, initial_capital, total_return, sharpe, created_at, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Symbol, run.Strategy, run.InitialCapital,
		run.Result.TotalReturn, run.Result.SharpeRatio, run.CreatedAt.UnixMilli(), string(data))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun loads one run by ID. Returns model.ErrNotFound when absent.
func (s *Store) GetRun(ctx context.Context, id string) (model.BacktestRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, strategy, initial_capital, created_at, result_json
		FROM backtest_runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BacktestRun{}, model.ErrNotFound
	}
	return run, err
}

// ListRuns returns up to limit runs, newest first. An empty symbol lists all.
func (s *Store) ListRuns(ctx context.Context, symbol string, limit int) ([]model.BacktestRun, error) {
	if limit <= 0 {
		limit = -1
	}
	var (
		rows *sql.Rows
		err  error
	)
	if symbol == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, symbol, strategy, initial_capital, created_at, result_json
			FROM backtest_runs ORDER BY created_at DESC, id LIMIT ?
		`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, symbol, strategy, initial_capital, created_at, result_json
			FROM backtest_runs WHERE symbol = ? ORDER BY created_at DESC, id LIMIT ?
		`, symbol, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite query backtest_runs: %w", err)
	}
	defer rows.Close()

	var runs []model.BacktestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// PruneRuns keeps the newest keep runs and deletes the rest.
// Returns the number of deleted rows. keep <= 0 is a no-op.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM backtest_runs WHERE id NOT IN (
			SELECT id FROM backtest_runs ORDER BY created_at DESC, id LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (model.BacktestRun, error) {
	var (
		run     model.BacktestRun
		created int64
		data    string
	)
	if err := r.Scan(&run.ID, &run.Symbol, &run.Strategy, &run.InitialCapital, &created, &data); err != nil {
		return model.BacktestRun{}, err
	}
	run.CreatedAt = time.UnixMilli(created)
	if err := json.Unmarshal([]byte(data), &run.Result); err != nil {
		return model.BacktestRun{}, fmt.Errorf("decode run %s: %w", run.ID, err)
	}
	return run, nil
}

var (
	_ model.PriceReader = (*Store)(nil)
	_ model.PriceWriter = (*Store)(nil)
	_ model.RunStore    = (*Store)(nil)
)
