package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"stock-analytics/internal/metrics"
	"stock-analytics/internal/model"
	"stock-analytics/internal/portfolio"
	"stock-analytics/internal/predict"
	"stock-analytics/internal/strategy"
)

type memSource struct {
	bars  map[string][]model.PricePoint
	calls int
}

func (m *memSource) History(ctx context.Context, symbol string, limit int) ([]model.PricePoint, error) {
	m.calls++
	b, ok := m.bars[symbol]
	if !ok {
		return nil, errors.New("no data")
	}
	if limit > 0 && len(b) > limit {
		b = b[len(b)-limit:]
	}
	return b, nil
}

type memRuns struct {
	mu     sync.Mutex
	runs   []model.BacktestRun
	pruned int
}

func (m *memRuns) SaveRun(ctx context.Context, run model.BacktestRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRuns) GetRun(ctx context.Context, id string) (model.BacktestRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return model.BacktestRun{}, model.ErrNotFound
}

func (m *memRuns) ListRuns(ctx context.Context, symbol string, limit int) ([]model.BacktestRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.BacktestRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		if symbol == "" || m.runs[i].Symbol == symbol {
			out = append(out, m.runs[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRuns) PruneRuns(ctx context.Context, keep int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) <= keep {
		return 0, nil
	}
	n := len(m.runs) - keep
	m.runs = m.runs[n:]
	m.pruned += n
	return int64(n), nil
}

type memCache struct {
	data map[string][]byte
	sets int
}

func (c *memCache) Get(ctx context.Context, key string, dst any) bool {
	b, ok := c.data[key]
	return ok && json.Unmarshal(b, dst) == nil
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	b, _ := json.Marshal(v)
	c.data[key] = b
	c.sets++
}

func rising(n int) []model.PricePoint {
	bars := make([]model.PricePoint, n)
	for i := range bars {
		bars[i] = model.PricePoint{
			Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02"),
			Close: 100 + float64(i),
		}
	}
	return bars
}

func newTestService(t *testing.T) (*Service, *memSource, *memRuns, *memCache, *metrics.Metrics) {
	t.Helper()
	src := &memSource{bars: map[string][]model.PricePoint{"005930": rising(80)}}
	runs := &memRuns{}
	cache := &memCache{data: map[string][]byte{}}
	prom := metrics.NewMetrics(nil)
	presets := map[string]strategy.Preset{
		"swing": {Name: "swing", Type: "sma_crossover", Parameters: strategy.Params{"fast_period": 2, "slow_period": 4}},
	}
	svc := New(Deps{Source: src, Runs: runs, Cache: cache, Presets: presets, Metrics: prom},
		Options{CacheTTL: time.Minute, RunRetention: 3})
	return svc, src, runs, cache, prom
}

func TestLoad(t *testing.T) {
	svc, src, _, _, _ := newTestService(t)
	ctx := context.Background()

	bars, err := svc.Load(ctx, PriceInput{Prices: []float64{1, 2, 3}, Dates: []string{"a", "b"}, Symbol: "005930"})
	if err != nil {
		t.Fatalf("load inline: %v", err)
	}
	if len(bars) != 3 || bars[1].Date != "b" || bars[2].Date != "" {
		t.Errorf("unexpected inline bars: %+v", bars)
	}
	if src.calls != 0 {
		t.Error("inline prices must bypass the source")
	}

	bars, err = svc.Load(ctx, PriceInput{Symbol: "005930", Bars: 10})
	if err != nil {
		t.Fatalf("load symbol: %v", err)
	}
	if len(bars) != 10 || bars[9].Close != 179 {
		t.Errorf("expected last 10 bars ending at 179, got %d bars", len(bars))
	}

	if _, err := svc.Load(ctx, PriceInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBacktestJournalsAndCaches(t *testing.T) {
	svc, _, runs, cache, prom := newTestService(t)
	ctx := context.Background()

	req := BacktestRequest{PriceInput: PriceInput{Symbol: "005930"}, Strategy: "swing"}
	run, err := svc.Backtest(ctx, req)
	if err != nil {
		t.Fatalf("backtest: %v", err)
	}
	if run.ID == "" || run.Symbol != "005930" || run.Strategy != "sma_crossover" {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.InitialCapital != 10_000_000 {
		t.Errorf("expected default capital, got %v", run.InitialCapital)
	}
	if run.Result.Bars != 80 || len(run.Result.PortfolioValue) != 81 {
		t.Errorf("unexpected result shape: bars=%d trajectory=%d", run.Result.Bars, len(run.Result.PortfolioValue))
	}
	if cache.sets != 1 {
		t.Errorf("expected one cache fill, got %d", cache.sets)
	}

	again, err := svc.Backtest(ctx, req)
	if err != nil {
		t.Fatalf("backtest: %v", err)
	}
	if again.ID == run.ID {
		t.Error("every run gets its own ID")
	}
	if again.Result.EndValue != run.Result.EndValue {
		t.Error("cached result differs from computed result")
	}
	if cache.sets != 1 {
		t.Errorf("second run should hit the cache, sets=%d", cache.sets)
	}
	if got := testutil.ToFloat64(prom.CacheHits); got != 1 {
		t.Errorf("expected 1 cache hit, got %v", got)
	}
	if got := testutil.ToFloat64(prom.BacktestsTotal.WithLabelValues("sma_crossover")); got != 2 {
		t.Errorf("expected 2 backtests counted, got %v", got)
	}
	if got := testutil.ToFloat64(prom.RunsStored); got != 2 {
		t.Errorf("expected 2 stored runs, got %v", got)
	}

	listed, err := svc.Runs(ctx, "005930", 0)
	if err != nil || len(listed) != 2 || listed[0].ID != again.ID {
		t.Errorf("Runs newest first: %v, %v", listed, err)
	}
	got, err := svc.Run(ctx, run.ID)
	if err != nil || got.ID != run.ID {
		t.Errorf("Run(%s) = %+v, %v", run.ID, got, err)
	}
	if _, err := svc.Run(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	for i := 0; i < 3; i++ {
		svc.Backtest(ctx, req)
	}
	if len(runs.runs) != 3 || runs.pruned != 2 {
		t.Errorf("retention should keep 3 runs: have %d, pruned %d", len(runs.runs), runs.pruned)
	}
}

func TestBacktestRejectsBadCapital(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	_, err := svc.Backtest(context.Background(), BacktestRequest{
		PriceInput:     PriceInput{Prices: []float64{1, 2, 3}},
		InitialCapital: -5,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBacktestWithoutOptionalDeps(t *testing.T) {
	svc := New(Deps{}, Options{})
	run, err := svc.Backtest(context.Background(), BacktestRequest{
		PriceInput: PriceInput{Prices: []float64{10, 11, 12}},
		Strategy:   "rsi_overbought",
	})
	if err != nil {
		t.Fatalf("backtest: %v", err)
	}
	if run.Result.TotalTrades != 0 || run.Result.EndValue != 10_000_000 {
		t.Errorf("short history should not trade: %+v", run.Result)
	}
	runs, err := svc.Runs(context.Background(), "", 10)
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty journal, got %v, %v", runs, err)
	}
}

func TestPredict(t *testing.T) {
	svc, _, _, cache, prom := newTestService(t)
	ctx := context.Background()

	out, err := svc.Predict(ctx, PredictRequest{
		PriceInput: PriceInput{Prices: []float64{100, 102, 104, 106, 108}},
		Method:     "linear",
		Forecast:   3,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if out.Method != predict.Linear || out.LastPrice != 108 || len(out.Predictions) != 3 {
		t.Fatalf("unexpected prediction: %+v", out)
	}
	// perfect line 100 + 2x over x = 0..4, forecast at x = 6..8 with full confidence
	for i, want := range []float64{112, 114, 116} {
		p := out.Predictions[i]
		if p.Day != i+1 || p.PredictedPrice < want-1e-9 || p.PredictedPrice > want+1e-9 || p.Confidence != 100 {
			t.Errorf("prediction %d = %+v, want price %v", i, p, want)
		}
	}
	if cache.sets != 1 {
		t.Errorf("expected cache fill, got %d", cache.sets)
	}
	if got := testutil.ToFloat64(prom.PredictionsTotal.WithLabelValues("linear")); got != 1 {
		t.Errorf("expected 1 linear prediction counted, got %v", got)
	}

	if _, err := svc.Predict(ctx, PredictRequest{PriceInput: PriceInput{Prices: []float64{1}}, Forecast: 1000}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for huge forecast, got %v", err)
	}
}

func TestSentiment(t *testing.T) {
	svc, _, _, _, prom := newTestService(t)
	rep, err := svc.Sentiment(context.Background(), PriceInput{Symbol: "005930"})
	if err != nil {
		t.Fatalf("sentiment: %v", err)
	}
	// last five of 100..179: (179-175)/175*100
	if rep.Sentiment.Class != "mildly_bullish" {
		t.Errorf("expected mildly_bullish, got %+v", rep.Sentiment)
	}
	if rep.LastPrice != 179 || rep.Date == "" {
		t.Errorf("unexpected report: %+v", rep)
	}
	if got := testutil.ToFloat64(prom.SentimentTotal.WithLabelValues("mildly_bullish")); got != 1 {
		t.Errorf("expected sentiment counted, got %v", got)
	}
}

func TestSignal(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	sig, err := svc.Signal(context.Background(), PriceInput{Symbol: "005930"}, "swing", nil)
	if err != nil {
		t.Fatalf("signal: %v", err)
	}
	if sig.Symbol != "005930" || sig.Bar != 79 || sig.Price != 179 {
		t.Errorf("unexpected signal: %+v", sig)
	}
	if _, err := svc.Signal(context.Background(), PriceInput{Prices: []float64{}, Symbol: ""}, "", nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIndicators(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	rep, err := svc.Indicators(context.Background(), IndicatorsRequest{
		PriceInput: PriceInput{Symbol: "005930", Bars: 30},
		Specs:      "SMA:5,RSI:14",
	})
	if err != nil {
		t.Fatalf("indicators: %v", err)
	}
	if len(rep.Dates) != 30 || len(rep.Prices) != 30 {
		t.Fatalf("expected 30 source bars, got %d", len(rep.Dates))
	}
	names := make([]string, len(rep.Series))
	for i, s := range rep.Series {
		names[i] = s.Name
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "RSI_14" || names[1] != "SMA_5" {
		t.Fatalf("unexpected series: %v", names)
	}
	sma := rep.Series[0]
	if sma.Offset != 4 || sma.Len() != 26 {
		t.Errorf("SMA_5 offset=%d len=%d", sma.Offset, sma.Len())
	}

	def, err := svc.Indicators(context.Background(), IndicatorsRequest{PriceInput: PriceInput{Symbol: "005930"}})
	if err != nil {
		t.Fatalf("indicators: %v", err)
	}
	if len(def.Series) < len(svc.IndicatorConfigs()) {
		t.Errorf("default set should produce at least %d series, got %d", len(svc.IndicatorConfigs()), len(def.Series))
	}
}

func TestPortfolio(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	res, err := svc.Portfolio(context.Background(), PortfolioRequest{
		Holdings: []model.Holding{{Symbol: "A", Quantity: 10, AvgPrice: 90, Price: 100}},
	})
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if res.TotalValue != 1000 || res.TotalPnL != 100 {
		t.Errorf("unexpected analysis: %+v", res)
	}
	if _, err := svc.Portfolio(context.Background(), PortfolioRequest{}); !errors.Is(err, portfolio.ErrEmptyPortfolio) {
		t.Errorf("expected ErrEmptyPortfolio, got %v", err)
	}
}

type memWriter struct{ got map[string]int }

func (w *memWriter) UpsertHistory(ctx context.Context, symbol string, bars []model.PricePoint) (int, error) {
	w.got[symbol] = len(bars)
	return len(bars), nil
}

func TestIngest(t *testing.T) {
	src := &memSource{bars: map[string][]model.PricePoint{"X": rising(12)}}
	w := &memWriter{got: map[string]int{}}
	n, err := Ingest(context.Background(), src, w, "X", 5)
	if err != nil || n != 5 || w.got["X"] != 5 {
		t.Errorf("Ingest = %d, %v (writer saw %d)", n, err, w.got["X"])
	}
	if _, err := Ingest(context.Background(), src, w, "missing", 5); err == nil {
		t.Error("expected error for unknown symbol")
	}
}

func TestCacheKeys(t *testing.T) {
	if cacheKey("k", "ab", "c") == cacheKey("k", "a", "bc") {
		t.Error("part boundaries must affect the key")
	}
	if cacheKey("predict", "x") == cacheKey("backtest", "x") {
		t.Error("kind must affect the key")
	}
	if hashFloats([]float64{12, 3}) == hashFloats([]float64{1, 23}) {
		t.Error("element boundaries must affect the hash")
	}
	if hashFloats([]float64{1, 2}) != hashFloats([]float64{1, 2}) {
		t.Error("hash must be deterministic")
	}
}
