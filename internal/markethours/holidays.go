package markethours

import "time"

type monthDay struct {
	month time.Month
	day   int
}

// KRX market holidays on weekdays. Weekend holidays need no entry.
var krxHolidays = map[int][]monthDay{
	2025: {
		{time.January, 1},   // New Year's Day
		{time.January, 27},  // temporary holiday
		{time.January, 28},  // Seollal
		{time.January, 29},  // Seollal
		{time.January, 30},  // Seollal
		{time.March, 3},     // Independence Movement Day (substitute)
		{time.May, 1},       // Labour Day
		{time.May, 5},       // Children's Day, Buddha's Birthday
		{time.May, 6},       // substitute holiday
		{time.June, 3},      // presidential election
		{time.June, 6},      // Memorial Day
		{time.August, 15},   // Liberation Day
		{time.October, 3},   // National Foundation Day
		{time.October, 6},   // Chuseok
		{time.October, 7},   // Chuseok
		{time.October, 8},   // Chuseok (substitute)
		{time.October, 9},   // Hangul Day
		{time.December, 25}, // Christmas
		{time.December, 31}, // year-end closing
	},
	2026: {
		{time.January, 1},    // New Year's Day
		{time.February, 16},  // Seollal
		{time.February, 17},  // Seollal
		{time.February, 18},  // Seollal
		{time.March, 2},      // Independence Movement Day (substitute)
		{time.May, 1},        // Labour Day
		{time.May, 5},        // Children's Day
		{time.May, 25},       // Buddha's Birthday (substitute)
		{time.June, 3},       // local elections
		{time.August, 17},    // Liberation Day (substitute)
		{time.September, 24}, // Chuseok
		{time.September, 25}, // Chuseok
		{time.October, 5},    // National Foundation Day (substitute)
		{time.October, 9},    // Hangul Day
		{time.December, 25},  // Christmas
		{time.December, 31},  // year-end closing
	},
}

var holidaySet map[string]bool

func init() {
	holidaySet = make(map[string]bool)
	for year, days := range krxHolidays {
		for _, d := range days {
			holidaySet[dateKey(year, d.month, d.day)] = true
		}
	}
}

// IsHoliday reports whether t's KST date is a KRX holiday.
func IsHoliday(t time.Time) bool {
	k := t.In(KST)
	return holidaySet[dateKey(k.Year(), k.Month(), k.Day())]
}

func dateKey(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, KST).Format("2006-01-02")
}
