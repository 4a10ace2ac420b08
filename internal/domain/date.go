package domain

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar form dates take at the API boundary.
const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, invalidf("date %q must be YYYY-MM-DD", s)
	}
	return d, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MaxDays bounds any single duration or delay so end dates stay within
// four-digit years.
const MaxDays = 36500

func validDays(days float64) bool {
	return days > 0 && !math.IsNaN(days) && math.Ceil(days) <= MaxDays
}

// WholeDays rounds a fractional day count up to calendar days.
func WholeDays(days float64) int {
	return int(math.Ceil(days))
}

func addDays(d time.Time, days float64) time.Time {
	return d.AddDate(0, 0, WholeDays(days))
}
