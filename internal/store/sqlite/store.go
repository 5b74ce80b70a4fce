package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite persistence layer for price history and the backtest
// run journal. A single connection serialises writes.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates (if needed) and opens the database at path with WAL mode and
// the analytics schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", path)
	return &Store{db: db, path: path}, nil
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS price_history (
			symbol TEXT    NOT NULL,
			date   TEXT    NOT NULL,
			close  REAL    NOT NULL,
			high   REAL,
			low    REAL,
			volume INTEGER,
			PRIMARY KEY (symbol, date)
		);

		CREATE TABLE IF NOT EXISTS backtest_runs (
			id              TEXT    PRIMARY KEY,
			symbol          TEXT    NOT NULL,
			strategy        TEXT    NOT NULL,
			initial_capital REAL    NOT NULL,
			total_return    REAL    NOT NULL,
			sharpe          REAL    NOT NULL,
			created_at      INTEGER NOT NULL,
			result_json     TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_backtest_runs_created
			ON backtest_runs (created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_backtest_runs_symbol
			ON backtest_runs (symbol, created_at DESC);
	`)
	return err
}
