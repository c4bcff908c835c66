package shift

import (
	"fmt"
	"time"
)

// Shift is one of the four fixed daily time windows.
type Shift string

const (
	Morning Shift = "morning"
	Noon    Shift = "noon"
	Evening Shift = "evening"
	Night   Shift = "night"
)

// Info describes a shift's display name, window and monthly price.
type Info struct {
	Name      string
	TimeRange string
	Price     float64
}

// catalog is static; the shift policy never changes at runtime.
var catalog = map[Shift]Info{
	Morning: {Name: "Morning", TimeRange: "06:00 AM - 11:00 AM", Price: 549},
	Noon:    {Name: "Noon", TimeRange: "11:00 AM - 04:00 PM", Price: 499},
	Evening: {Name: "Evening", TimeRange: "04:00 PM - 09:00 PM", Price: 599},
	Night:   {Name: "Night", TimeRange: "09:00 PM - 05:00 AM", Price: 699},
}

// All lists shifts in day order.
func All() []Shift { return []Shift{Morning, Noon, Evening, Night} }

// Parse validates a raw shift identifier.
func Parse(s string) (Shift, error) {
	sh := Shift(s)
	if _, ok := catalog[sh]; !ok {
		return "", fmt.Errorf("unknown shift %q", s)
	}
	return sh, nil
}

// TimeRangeOf returns the human-readable window for a shift.
func TimeRangeOf(s Shift) string { return catalog[s].TimeRange }

// PriceOf returns the monthly price for a shift.
func PriceOf(s Shift) float64 { return catalog[s].Price }

// HasEnded reports whether the shift's window has ended at now.
//
// The night predicate is hour>=5 && hour<21, i.e. "not currently in the
// overnight window", with no date-aware wrap-around; this matches the
// production policy exactly and must not be "fixed".
func HasEnded(s Shift, now time.Time) bool {
	h := now.Hour()
	switch s {
	case Morning:
		return h >= 11
	case Noon:
		return h >= 16
	case Evening:
		return h >= 21
	case Night:
		return h >= 5 && h < 21
	default:
		return false
	}
}

// IsNowWithin reports whether now falls inside the shift's window.
// Every shift's window is the complement of its ended predicate.
func IsNowWithin(s Shift, now time.Time) bool {
	return !HasEnded(s, now)
}
