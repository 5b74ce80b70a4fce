package markethours

import (
	"strings"
	"testing"
	"time"
)

func kst(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, KST)
}

func TestIsMarketOpen(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"before open", kst(2026, time.October, 14, 8, 59), false},
		{"at open", kst(2026, time.October, 14, 9, 0), true},
		{"midday", kst(2026, time.October, 14, 12, 0), true},
		{"last minute", kst(2026, time.October, 14, 15, 29), true},
		{"at close", kst(2026, time.October, 14, 15, 30), false},
		{"saturday", kst(2026, time.October, 17, 10, 0), false},
		{"hangul day", kst(2026, time.October, 9, 10, 0), false},
		{"chuseok", kst(2026, time.September, 24, 10, 0), false},
		{"utc input", time.Date(2026, time.October, 14, 1, 0, 0, 0, time.UTC), true}, // 10:00 KST
	}
	for _, tc := range cases {
		if got := IsMarketOpen(tc.t); got != tc.want {
			t.Errorf("%s: IsMarketOpen(%v) = %v, want %v", tc.name, tc.t, got, tc.want)
		}
	}
}

func TestNextOpen(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want time.Time
	}{
		{"early morning", kst(2026, time.October, 14, 7, 0), kst(2026, time.October, 14, 9, 0)},
		{"during session", kst(2026, time.October, 14, 10, 0), kst(2026, time.October, 15, 9, 0)},
		{"friday evening", kst(2026, time.October, 16, 18, 0), kst(2026, time.October, 19, 9, 0)},
		{"before hangul day weekend", kst(2026, time.October, 8, 16, 0), kst(2026, time.October, 12, 9, 0)},
		{"seollal", kst(2026, time.February, 13, 16, 0), kst(2026, time.February, 19, 9, 0)},
	}
	for _, tc := range cases {
		if got := NextOpen(tc.t); !got.Equal(tc.want) {
			t.Errorf("%s: NextOpen = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTimeUntilClose(t *testing.T) {
	if d := TimeUntilClose(kst(2026, time.October, 14, 15, 0)); d != 30*time.Minute {
		t.Errorf("expected 30m, got %v", d)
	}
	if d := TimeUntilClose(kst(2026, time.October, 14, 16, 0)); d != 0 {
		t.Errorf("expected 0 after close, got %v", d)
	}
	if d := TimeUntilOpen(kst(2026, time.October, 14, 8, 0)); d != time.Hour {
		t.Errorf("expected 1h until open, got %v", d)
	}
}

func TestStatusString(t *testing.T) {
	open := StatusString(kst(2026, time.October, 14, 13, 0))
	if !strings.HasPrefix(open, "Market Open") || !strings.Contains(open, "2h30m") {
		t.Errorf("unexpected open status %q", open)
	}
	closed := StatusString(kst(2026, time.October, 16, 18, 0))
	if !strings.HasPrefix(closed, "Market Closed") || !strings.Contains(closed, "Mon 09:00") {
		t.Errorf("unexpected closed status %q", closed)
	}
}

func TestIsHoliday(t *testing.T) {
	if !IsHoliday(kst(2025, time.December, 31, 12, 0)) {
		t.Error("year-end closing should be a holiday")
	}
	if IsHoliday(kst(2026, time.October, 14, 12, 0)) {
		t.Error("ordinary Wednesday is not a holiday")
	}
}
