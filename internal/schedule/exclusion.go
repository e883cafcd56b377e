package schedule

import (
	"time"

	"salonbook/internal/models"
)

// Kind classifies why a date is blocked.
type Kind string

const (
	KindNone          Kind = ""
	KindNonWorkingDay Kind = "non_working_day"
	KindVacation      Kind = "vacation"
	KindBreak         Kind = "break"
	KindStaffOff      Kind = "staff_off"
)

const (
	ReasonNonWorkingDay = "non-working day"
	ReasonVacation      = "vacation"
	ReasonBreak         = "break"
	ReasonStaffOff      = "staff not working"
)

// Exclusion is the result of checking a date.
type Exclusion struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Kind      Kind   `json:"kind,omitempty"`
}

// CheckDate returns the first rule that blocks the date: salon weekday closed,
// then active vacations, then active breaks, then the selected staff's
// weekday flag. staff may be nil.
func CheckDate(date time.Time, salon models.WeeklyHours, ex models.Exceptions, staff *models.Staff) Exclusion {
	if _, open := SalonHours(date.Weekday(), salon); !open {
		return blocked(KindNonWorkingDay, ReasonNonWorkingDay)
	}

	key := models.DateKey(date)
	for _, v := range ex.Vacations {
		if v.Covers(key) {
			return blocked(KindVacation, titleOr(v.Title, ReasonVacation))
		}
	}

	for _, b := range ex.Breaks {
		if b.Covers(key) {
			return blocked(KindBreak, titleOr(b.Title, ReasonBreak))
		}
	}

	if staff != nil && !staff.WorksOn(date.Weekday()) {
		return blocked(KindStaffOff, ReasonStaffOff)
	}

	return Exclusion{Available: true}
}

func blocked(kind Kind, reason string) Exclusion {
	return Exclusion{Kind: kind, Reason: reason}
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}
