package capacity

import (
	"math"
	"time"

	"salonbook/internal/models"
)

const (
	// SlotMinutes is the capacity unit.
	SlotMinutes = 30
	// FallbackSlots is used when a date's hours cannot be resolved (8 hours).
	FallbackSlots = 16
)

// Mode selects how occupancy is counted.
type Mode string

const (
	// CountBased counts each qualifying appointment as one slot.
	CountBased Mode = "count"
	// MinuteWeighted counts the half-hour slots each appointment actually covers.
	MinuteWeighted Mode = "minutes"
)

// Aggregator derives DayCapacity values. It holds no state besides its mode.
type Aggregator struct {
	mode Mode
}

// NewAggregator creates an aggregator; an unknown mode falls back to CountBased.
func NewAggregator(mode Mode) *Aggregator {
	if mode != MinuteWeighted {
		mode = CountBased
	}
	return &Aggregator{mode: mode}
}

// Mode returns the counting mode in use.
func (a *Aggregator) Mode() Mode {
	return a.mode
}

// Aggregate computes the capacity of one date. window may be nil when the
// date's hours are unknown; a closed date passes ClosedWindow.
func (a *Aggregator) Aggregate(date time.Time, appts []models.Appointment, window *models.Window) models.DayCapacity {
	key := models.DateKey(date)

	total := FallbackSlots
	if window != nil {
		total = window.Minutes() / SlotMinutes
	}

	occupied := 0
	for _, ap := range appts {
		if !ap.CountsTowardCapacity() || ap.Date() != key {
			continue
		}
		if a.mode == MinuteWeighted {
			occupied += weightedSlots(ap)
		} else {
			occupied++
		}
	}

	return Build(key, total, occupied)
}

// Aggregate is the count-based aggregation.
func Aggregate(date time.Time, appts []models.Appointment, window *models.Window) models.DayCapacity {
	return NewAggregator(CountBased).Aggregate(date, appts, window)
}

// Build fills percentage, status and color from raw slot counts.
func Build(date string, total, occupied int) models.DayCapacity {
	free := total - occupied
	if free < 0 {
		free = 0
	}

	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(occupied) / float64(total) * 100))
	}

	status, color := Band(pct)
	return models.DayCapacity{
		Date:          date,
		TotalSlots:    total,
		OccupiedSlots: occupied,
		FreeSlots:     free,
		Percentage:    pct,
		Status:        status,
		Color:         color,
	}
}

// Band maps a percentage to its status and color.
func Band(pct int) (models.CapacityStatus, models.CapacityColor) {
	switch {
	case pct >= 100:
		return models.CapacityFull, models.ColorRed
	case pct >= 70:
		return models.CapacityBusy, models.ColorYellow
	case pct > 0:
		return models.CapacityAvailable, models.ColorGreen
	default:
		return models.CapacityEmpty, models.ColorGray
	}
}

// WindowFunc resolves the working window of a date: nil when the hours are
// unknown, ClosedWindow when the salon is closed.
type WindowFunc func(date time.Time) *models.Window

// ClosedWindow is the empty window of a closed date. It aggregates to zero
// total slots.
func ClosedWindow(date time.Time) *models.Window {
	return &models.Window{Start: date, End: date}
}

// Month aggregates every day of the month containing month. Days without a
// resolvable window use FallbackSlots.
func (a *Aggregator) Month(month time.Time, appts []models.Appointment, windowFor WindowFunc) []models.DayCapacity {
	byDate := make(map[string][]models.Appointment)
	for _, ap := range appts {
		byDate[ap.Date()] = append(byDate[ap.Date()], ap)
	}

	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	var out []models.DayCapacity
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		var w *models.Window
		if windowFor != nil {
			w = windowFor(d)
		}
		out = append(out, a.Aggregate(d, byDate[models.DateKey(d)], w))
	}
	return out
}

func weightedSlots(ap models.Appointment) int {
	minutes := int(ap.Duration() / time.Minute)
	if minutes <= 0 {
		return 0
	}
	return int(math.Ceil(float64(minutes) / SlotMinutes))
}
