package models

import (
	"strings"
	"time"
)

// DayHours is one weekday entry of a salon's or a staff member's weekly hours.
type DayHours struct {
	Start string `yaml:"start" json:"start"` // "09:00"
	End   string `yaml:"end" json:"end"`     // "17:00"
	Open  bool   `yaml:"open" json:"open"`
}

// WeeklyHours maps lowercase weekday names ("monday") to their hours.
type WeeklyHours map[string]DayHours

// WeekdayKey returns the WeeklyHours key for a weekday.
func WeekdayKey(w time.Weekday) string {
	return strings.ToLower(w.String())
}

// Day returns the entry for a weekday.
func (h WeeklyHours) Day(w time.Weekday) (DayHours, bool) {
	if h == nil {
		return DayHours{}, false
	}
	d, ok := h[WeekdayKey(w)]
	return d, ok
}

// Hours is a resolved open interval of a single weekday.
type Hours struct {
	Start Clock
	End   Clock
}

// Minutes returns the length of the interval.
func (h Hours) Minutes() int {
	return int(h.End - h.Start)
}

// On places the interval on a calendar date.
func (h Hours) On(date time.Time) Window {
	return Window{Start: h.Start.On(date), End: h.End.On(date)}
}

// Window is a dated half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Minutes returns the length of the window in whole minutes.
func (w Window) Minutes() int {
	if !w.End.After(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start) / time.Minute)
}

// Contains reports whether [start, end) lies inside the window.
func (w Window) Contains(start, end time.Time) bool {
	return !start.Before(w.Start) && !end.After(w.End)
}
