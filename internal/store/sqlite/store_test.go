package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stock-analytics/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndReadHistory(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	bars := []model.PricePoint{
		{Date: "2024-01-03", Close: 102, High: 103, Low: 101, Volume: 30},
		{Date: "2024-01-01", Close: 100},
		{Date: "2024-01-02", Close: 101, Volume: 20},
		{Date: "", Close: 999},
	}
	n, err := s.UpsertHistory(ctx, "005930", bars)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows written, got %d", n)
	}

	got, err := s.ReadHistory(ctx, "005930", 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(got))
	}
	if got[0].Date != "2024-01-01" || got[2].Date != "2024-01-03" {
		t.Errorf("bars not ascending: %+v", got)
	}
	if got[2].High != 103 || got[2].Low != 101 || got[2].Volume != 30 {
		t.Errorf("unexpected last bar: %+v", got[2])
	}

	// last N keeps ascending order
	got, err = s.ReadHistory(ctx, "005930", 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0].Date != "2024-01-02" || got[1].Date != "2024-01-03" {
		t.Errorf("unexpected last-2 bars: %+v", got)
	}

	// replace existing date
	if _, err := s.UpsertHistory(ctx, "005930", []model.PricePoint{{Date: "2024-01-03", Close: 110}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ = s.ReadHistory(ctx, "005930", 1)
	if len(got) != 1 || got[0].Close != 110 {
		t.Errorf("expected replaced close 110, got %+v", got)
	}

	last, err := s.LastDate(ctx, "005930")
	if err != nil || last != "2024-01-03" {
		t.Errorf("LastDate = %q, %v", last, err)
	}
	last, err = s.LastDate(ctx, "000660")
	if err != nil || last != "" {
		t.Errorf("LastDate for unknown symbol = %q, %v", last, err)
	}
}

func TestReadHistoryUnknownSymbol(t *testing.T) {
	s := openTest(t)
	got, err := s.ReadHistory(context.Background(), "NOPE", 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no bars, got %d", len(got))
	}
}

func TestSymbols(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	s.UpsertHistory(ctx, "B", []model.PricePoint{{Date: "2024-01-01", Close: 1}})
	s.UpsertHistory(ctx, "A", []model.PricePoint{{Date: "2024-01-01", Close: 1}})

	syms, err := s.Symbols(ctx)
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}
	if len(syms) != 2 || syms[0] != "A" || syms[1] != "B" {
		t.Errorf("unexpected symbols: %v", syms)
	}
}

func testRun(id, symbol string, created time.Time) model.BacktestRun {
	return model.BacktestRun{
		ID:             id,
		Symbol:         symbol,
		Strategy:       "sma_crossover",
		InitialCapital: 10_000_000,
		CreatedAt:      created,
		Result: model.BacktestResult{
			Strategy:    "sma_crossover",
			Bars:        3,
			StartValue:  10_000_000,
			EndValue:    10_500_000,
			TotalReturn: 5,
			TotalTrades: 2,
			WinRate:     100,
			Transactions: []model.Transaction{
				{Date: "D1", Type: model.TxBuy, Price: 100, Shares: 100000},
				{Date: "D2", Type: model.TxSell, Price: 105, Shares: 100000},
			},
			PortfolioValue: []float64{10_000_000, 10_000_000, 10_500_000, 10_500_000},
		},
	}
}

func TestRunJournal(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		sym := "005930"
		if id == "r2" {
			sym = "000660"
		}
		if err := s.SaveRun(ctx, testRun(id, sym, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	run, err := s.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if run.Symbol != "005930" || run.Result.TotalReturn != 5 || len(run.Result.Transactions) != 2 {
		t.Errorf("unexpected run: %+v", run)
	}
	if !run.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", run.CreatedAt, base)
	}
	if run.Result.Transactions[1].Type != model.TxSell {
		t.Errorf("expected SELL, got %s", run.Result.Transactions[1].Type)
	}

	if _, err := s.GetRun(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, err := s.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "r3" || all[2].ID != "r1" {
		t.Errorf("expected newest first, got %v", ids(all))
	}

	filtered, err := s.ListRuns(ctx, "005930", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "r3" {
		t.Errorf("unexpected filtered runs: %v", ids(filtered))
	}

	deleted, err := s.PruneRuns(ctx, 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 pruned run, got %d", deleted)
	}
	if _, err := s.GetRun(ctx, "r1"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("oldest run should be pruned, got %v", err)
	}
	if n, _ := s.PruneRuns(ctx, 0); n != 0 {
		t.Errorf("keep=0 should be a no-op, deleted %d", n)
	}
}

func ids(runs []model.BacktestRun) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.ID
	}
	return out
}
