package predict

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestLinearRegression_PerfectLine(t *testing.T) {
	// y = 10 + 2x for x = 0..4 → forecasts at x = 6..10
	p := New([]float64{10, 12, 14, 16, 18})
	got := p.LinearRegression(20, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 points, got %d", len(got))
	}
	for i, pt := range got {
		if pt.Day != i+1 {
			t.Errorf("point %d: day=%d", i, pt.Day)
		}
		assertClose(t, "linear price", pt.PredictedPrice, 22+2*float64(i), 1e-9)
		assertClose(t, "linear confidence", pt.Confidence, 100, 1e-9)
	}
}

func TestLinearRegression_FirstPointSkipsOneIndex(t *testing.T) {
	// 100..119 has slope 1 over x = 0..19; the first forecast is x = 21
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = float64(100 + i)
	}
	got := New(prices).LinearRegression(20, 5)
	if len(got) != 5 || got[0].Day != 1 {
		t.Fatalf("unexpected forecast: %+v", got)
	}
	assertClose(t, "first point", got[0].PredictedPrice, 121, 1e-9)
	assertClose(t, "last point", got[4].PredictedPrice, 125, 1e-9)
}

func TestLinearRegression_ConfidenceRepeated(t *testing.T) {
	p := New([]float64{10, 13, 11, 15, 12, 16, 14})
	got := p.LinearRegression(20, 5)
	for _, pt := range got[1:] {
		if pt.Confidence != got[0].Confidence {
			t.Fatalf("confidence differs across points: %v", got)
		}
	}
	if got[0].Confidence <= 0 || got[0].Confidence > 100 {
		t.Errorf("confidence %.4f out of (0,100]", got[0].Confidence)
	}
}

func TestLinearRegression_SinglePoint(t *testing.T) {
	got := New([]float64{42}).LinearRegression(20, 5)
	for _, pt := range got {
		assertClose(t, "flat", pt.PredictedPrice, 42, 1e-9)
	}
}

// Each step blends toward the last observed price rather than feeding the
// forecast back in, so a smoothed forecast never leaves the last price.
func TestExponentialSmoothing_StaysAtLastPrice(t *testing.T) {
	got := New([]float64{90, 95, 100}).ExponentialSmoothing(0.3, 5)
	wantConf := []float64{75, 70, 65, 60, 55}
	for i, pt := range got {
		assertClose(t, "exp price", pt.PredictedPrice, 100, 1e-9)
		assertClose(t, "exp confidence", pt.Confidence, wantConf[i], 1e-9)
	}
}

func TestMovingAverage_RisingAboveAverage(t *testing.T) {
	// Window 11..30: avg 20.5, trend (30-11)/20 = 0.95
	got := New(rising(30)).MovingAverage(20, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 points, got %d", len(got))
	}
	wantConf := []float64{65, 61, 57, 53, 49}
	for i, pt := range got {
		if pt.PredictedPrice <= 20.5 {
			t.Errorf("point %d: %.4f not above window average", i, pt.PredictedPrice)
		}
		assertClose(t, "ma price", pt.PredictedPrice, 20.5+0.95*float64(i+1), 1e-9)
		assertClose(t, "ma confidence", pt.Confidence, wantConf[i], 1e-9)
	}
}

func TestPredictPrice_UnknownMethodIsLinear(t *testing.T) {
	prices := []float64{10, 12, 14, 16, 18}
	a := PredictPrice(prices, "crystal_ball")
	b := PredictPrice(prices, "linear")
	if len(a) != DefaultForecast || len(a) != len(b) {
		t.Fatalf("lengths %d/%d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("point %d: %+v != %+v", i, a[i], b[i])
		}
	}
}

func TestPredictPrice_Empty(t *testing.T) {
	for _, m := range []string{"linear", "exponential", "moving_average"} {
		if got := PredictPrice(nil, m); len(got) != 0 {
			t.Errorf("%s: expected empty forecast, got %v", m, got)
		}
	}
}

func TestMomentumAndVolatility(t *testing.T) {
	p := New(rising(30))
	assertClose(t, "momentum", p.Momentum(10), 9, 1e-9)

	// Constant 100% returns → zero deviation
	assertClose(t, "volatility", New([]float64{1, 2, 4, 8, 16}).Volatility(20), 0, 1e-9)

	// Returns +10%, -10% → population sd 0.1 → 10%
	assertClose(t, "volatility", New([]float64{100, 110, 99}).Volatility(20), 10, 1e-9)
}

func TestSentimentBuckets(t *testing.T) {
	cases := []struct {
		last  float64
		class string
		color string
	}{
		{110, "bullish", "#00ff00"},
		{103, "mildly_bullish", "#99ff99"},
		{98, "mildly_bearish", "#ff9999"},
		{90, "bearish", "#ff0000"},
	}
	for _, c := range cases {
		s := New([]float64{100, 100, 100, 100, c.last}).Sentiment()
		if s.Class != c.class || s.Color != c.color {
			t.Errorf("last=%.0f: got %s/%s, want %s/%s", c.last, s.Class, s.Color, c.class, c.color)
		}
	}
}

func TestGetMarketSentiment_Degenerate(t *testing.T) {
	ms := GetMarketSentiment(nil)
	if ms.Momentum != 0 || ms.Volatility != 0 || ms.Sentiment.Score != 0 {
		t.Errorf("expected neutral summaries, got %+v", ms)
	}
	ms = GetMarketSentiment([]float64{0, 0, 0, 0, 5})
	if math.IsNaN(ms.Sentiment.Score) || math.IsInf(ms.Sentiment.Score, 0) {
		t.Errorf("zero base produced %.4f", ms.Sentiment.Score)
	}
}

func TestNormalize(t *testing.T) {
	p := New([]float64{2, 4, 4, 4, 5, 5, 7, 9}) // mean 5, sd 2
	assertClose(t, "normalize", p.Normalize(9), 2, 1e-9)
	assertClose(t, "denormalize", p.Denormalize(-2), 1, 1e-9)

	flat := New([]float64{3, 3, 3})
	if flat.Normalize(3) != 0 || flat.Denormalize(1) != 0 {
		t.Error("zero-variance history should normalize to 0")
	}
}

func TestParseMethod(t *testing.T) {
	if ParseMethod("Moving_Average") != MovingAverage || ParseMethod("exponential") != Exponential {
		t.Error("known methods not parsed")
	}
	if ParseMethod("") != Linear {
		t.Error("empty method should fall back to linear")
	}
}
