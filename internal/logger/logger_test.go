package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

func TestInit(t *testing.T) {
	logger := Init("test-service", slog.LevelInfo)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNew_WritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "analytics", slog.LevelInfo)
	l.Info("hello", "symbol", "005930")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not JSON: %v (%s)", err, buf.String())
	}
	if rec["service"] != "analytics" || rec["symbol"] != "005930" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := context.Background()

	// No request ID set
	if id := RequestID(ctx); id != "" {
		t.Errorf("expected empty request id, got %q", id)
	}

	ctx = WithRequestID(ctx, "req-123")
	if id := RequestID(ctx); id != "req-123" {
		t.Errorf("expected 'req-123', got %q", id)
	}
}

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected UUID, got %q: %v", id, err)
	}
	if id == NewRequestID() {
		t.Error("expected distinct ids")
	}
}

func TestLogWithRequest(t *testing.T) {
	ctx := context.Background()

	if attrs := LogWithRequest(ctx); attrs != nil {
		t.Errorf("expected nil attrs when no request id, got %v", attrs)
	}

	ctx = WithRequestID(ctx, "abc-123")
	if attrs := LogWithRequest(ctx); len(attrs) == 0 {
		t.Fatal("expected non-empty attrs with request id set")
	}
}
