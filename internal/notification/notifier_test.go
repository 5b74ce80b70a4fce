package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stock-analytics/internal/model"
)

type recorder struct {
	got []Alert
	err error
}

func (r *recorder) Send(ctx context.Context, a Alert) error {
	r.got = append(r.got, a)
	return r.err
}

func TestSentimentShift(t *testing.T) {
	from := model.Sentiment{Label: "Bullish", Class: "mildly_bullish"}
	to := model.Sentiment{Label: "Strong Bullish", Class: "bullish", Score: 6.25}

	a := SentimentShift("005930", from, to, 76000)
	if a.Level != AlertWarning {
		t.Errorf("move into a strong bucket should warn, got %s", a.Level)
	}
	if a.Symbol != "005930" || !strings.Contains(a.Title, "Strong Bullish") {
		t.Errorf("unexpected alert: %+v", a)
	}
	if !strings.Contains(a.Message, "6.25%") || !strings.Contains(a.Message, "Bullish -> Strong Bullish") {
		t.Errorf("unexpected message: %q", a.Message)
	}

	if a.From != "mildly_bullish" || a.To != "bullish" || a.Score != 6.25 || a.Price != 76000 {
		t.Errorf("shift fields not set: %+v", a)
	}

	a = SentimentShift("005930", to, from, 76000)
	if a.Level != AlertInfo {
		t.Errorf("move into a mild bucket should be info, got %s", a.Level)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{err: errors.New("down")}
	err := Multi{ok, bad, NewLogNotifier()}.Send(context.Background(), Alert{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Errorf("expected joined error, got %v", err)
	}
	if len(ok.got) != 1 || len(bad.got) != 1 {
		t.Error("every notifier should receive the alert")
	}
	if err := (Multi{ok}).Send(context.Background(), Alert{}); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{Level: AlertInfo, Symbol: "A", Title: "t", Message: "m"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Symbol != "A" || got.Title != "t" || got.Time.IsZero() {
		t.Errorf("unexpected payload: %+v", got)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	if err := NewWebhookNotifier(failing.URL).Send(context.Background(), Alert{}); err == nil {
		t.Error("expected error on 500")
	}
}

func TestWebhookSentimentPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	from := model.Sentiment{Label: "Neutral", Class: "neutral"}
	to := model.Sentiment{Label: "Strong Bearish", Class: "bearish", Score: -7.5}
	if err := NewWebhookNotifier(srv.URL).Send(context.Background(), SentimentShift("AAPL", from, to, 181.2)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Symbol != "AAPL" || got.From != "neutral" || got.To != "bearish" {
		t.Errorf("unexpected shift fields: %+v", got.Alert)
	}
	if got.Score != -7.5 || got.Price != 181.2 {
		t.Errorf("unexpected score/price: %v %v", got.Score, got.Price)
	}
	if !strings.HasPrefix(got.Text, "[WARNING] AAPL Neutral -> Strong Bearish") {
		t.Errorf("unexpected text %q", got.Text)
	}
}

func TestTelegramNotifier(t *testing.T) {
	var path string
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42")
	n.apiBase = srv.URL
	if err := n.Send(context.Background(), Alert{Level: AlertCritical, Title: "RSI-14", Message: "1.5"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if path != "/botTOKEN/sendMessage" {
		t.Errorf("unexpected path %q", path)
	}
	if body["chat_id"] != "42" || body["parse_mode"] != "MarkdownV2" {
		t.Errorf("unexpected body %v", body)
	}
	if !strings.Contains(body["text"], `RSI\-14`) || !strings.Contains(body["text"], `1\.5`) {
		t.Errorf("text not escaped: %q", body["text"])
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := escapeMarkdown("a_b (c)!"); got != `a\_b \(c\)\!` {
		t.Errorf("escapeMarkdown = %q", got)
	}
	if got := escapeMarkdown("삼성전자"); got != "삼성전자" {
		t.Errorf("non-ASCII should pass through, got %q", got)
	}
}
