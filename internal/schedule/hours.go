package schedule

import (
	"time"

	"salonbook/internal/models"
)

// Weekday resolves one weekday of a single hours table. A missing entry, a
// closed flag or an unparsable/empty interval all mean closed.
func Weekday(w time.Weekday, hours models.WeeklyHours) (models.Hours, bool) {
	day, ok := hours.Day(w)
	if !ok || !day.Open {
		return models.Hours{}, false
	}

	start, err := models.ParseClock(day.Start)
	if err != nil {
		return models.Hours{}, false
	}
	end, err := models.ParseClock(day.End)
	if err != nil {
		return models.Hours{}, false
	}
	if end <= start {
		return models.Hours{}, false
	}
	return models.Hours{Start: start, End: end}, true
}

// StaffHours resolves a staff member's own hours; salon hours are never consulted.
func StaffHours(w time.Weekday, staff models.Staff) (models.Hours, bool) {
	return Weekday(w, staff.Hours)
}

// SalonHours resolves the salon's hours for a weekday.
func SalonHours(w time.Weekday, salon models.WeeklyHours) (models.Hours, bool) {
	return Weekday(w, salon)
}

// Resolve picks the staff hierarchy when a staff member is given and the salon
// hierarchy otherwise. The two are never merged.
func Resolve(w time.Weekday, staff *models.Staff, salon models.WeeklyHours) (models.Hours, bool) {
	if staff != nil {
		return StaffHours(w, *staff)
	}
	return SalonHours(w, salon)
}

// ResolveDate is Resolve placed on a calendar date.
func ResolveDate(date time.Time, staff *models.Staff, salon models.WeeklyHours) *models.Window {
	h, ok := Resolve(date.Weekday(), staff, salon)
	if !ok {
		return nil
	}
	w := h.On(date)
	return &w
}

// Span returns the earliest start and latest end over all open weekdays. It is
// meant for sizing calendar grids only.
func Span(hours models.WeeklyHours) (models.Hours, bool) {
	var span models.Hours
	found := false
	for w := time.Sunday; w <= time.Saturday; w++ {
		h, ok := Weekday(w, hours)
		if !ok {
			continue
		}
		if !found || h.Start < span.Start {
			span.Start = h.Start
		}
		if !found || h.End > span.End {
			span.End = h.End
		}
		found = true
	}
	return span, found
}
