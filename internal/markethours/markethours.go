// Package markethours answers KRX (Korea Exchange) regular-session questions.
package markethours

import (
	"fmt"
	"time"
)

// KST is Korea Standard Time (UTC+9, no DST).
var KST = time.FixedZone("KST", 9*3600)

// KRX regular session in KST.
const (
	OpenHour    = 9
	OpenMinute  = 0
	CloseHour   = 15
	CloseMinute = 30
)

// IsMarketOpen reports whether t falls within the KRX regular session
// (09:00–15:30 KST, Mon–Fri, excluding holidays).
func IsMarketOpen(t time.Time) bool {
	k := t.In(KST)
	if !IsTradingDay(k) {
		return false
	}
	hm := k.Hour()*60 + k.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsWeekday reports whether t is Mon–Fri in KST.
func IsWeekday(t time.Time) bool {
	wd := t.In(KST).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay reports whether t is a weekday and not a KRX holiday.
func IsTradingDay(t time.Time) bool {
	return IsWeekday(t) && !IsHoliday(t)
}

// NextOpen returns the next session open. Before today's open on a trading
// day it returns today's open.
func NextOpen(t time.Time) time.Time {
	k := t.In(KST)
	todayOpen := time.Date(k.Year(), k.Month(), k.Day(), OpenHour, OpenMinute, 0, 0, KST)
	if k.Before(todayOpen) && IsTradingDay(k) {
		return todayOpen
	}

	d := todayOpen.AddDate(0, 0, 1)
	for i := 0; i < 14; i++ { // covers Seollal/Chuseok runs plus weekends
		if IsTradingDay(d) {
			return d
		}
		d = d.AddDate(0, 0, 1)
	}
	return todayOpen.AddDate(0, 0, 1)
}

// TodayClose returns the session close on t's KST date.
func TodayClose(t time.Time) time.Time {
	k := t.In(KST)
	return time.Date(k.Year(), k.Month(), k.Day(), CloseHour, CloseMinute, 0, 0, KST)
}

// TimeUntilClose returns the time left in today's session, or 0 once closed.
func TimeUntilClose(t time.Time) time.Duration {
	if d := TodayClose(t).Sub(t); d > 0 {
		return d
	}
	return 0
}

// TimeUntilOpen returns the duration until the next open.
func TimeUntilOpen(t time.Time) time.Duration {
	return NextOpen(t).Sub(t)
}

// StatusString returns a human-readable session status.
func StatusString(t time.Time) string {
	if IsMarketOpen(t) {
		return fmt.Sprintf("Market Open, closes in %s", fmtDur(TimeUntilClose(t)))
	}
	next := NextOpen(t)
	return fmt.Sprintf("Market Closed, opens %s %s KST (%s)",
		next.Weekday().String()[:3], next.Format("15:04"), fmtDur(next.Sub(t)))
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
