package slots

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"salonbook/internal/metrics"
	"salonbook/internal/models"
)

const (
	// DefaultTickMinutes is the candidate start granularity for interactive use.
	DefaultTickMinutes = 30
	// DefaultBufferMinutes is the lead time required before a same-day start.
	DefaultBufferMinutes = 30
)

// ErrZeroDuration is returned when the requested services take no time.
var ErrZeroDuration = errors.New("total service duration is zero")

// BlockKind marks a stretch of the working window as free or taken.
type BlockKind string

const (
	BlockFree     BlockKind = "free"
	BlockOccupied BlockKind = "occupied"
)

// Block is a half-open stretch [Start, End) of a working window.
type Block struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Kind          BlockKind `json:"kind"`
	AppointmentID string    `json:"appointment_id,omitempty"`
}

// Line is one requested service in booking order.
type Line struct {
	ServiceID       string `json:"service_id"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Request describes one generation run.
type Request struct {
	Date         time.Time
	StaffID      string
	Lines        []Line
	Appointments []models.Appointment
	// Window is the staff's resolved working window for Date; nil means closed.
	Window *models.Window
}

// Day is the generator output for one date.
type Day struct {
	Date   string      `json:"date"`
	Closed bool        `json:"closed"`
	Blocks []Block     `json:"blocks,omitempty"`
	Slots  []time.Time `json:"slots"`
}

// Offers reports whether t is one of the generated start times.
func (d Day) Offers(t time.Time) bool {
	for _, s := range d.Slots {
		if s.Equal(t) {
			return true
		}
	}
	return false
}

// Options configures a Generator.
type Options struct {
	TickMinutes   int
	BufferMinutes int
}

// Generator computes bookable start times by subtracting existing
// appointments from a working window.
type Generator struct {
	tick   time.Duration
	buffer time.Duration
	now    func() time.Time
}

// NewGenerator creates a new slot generator.
func NewGenerator(opts Options) *Generator {
	if opts.TickMinutes <= 0 {
		opts.TickMinutes = DefaultTickMinutes
	}
	if opts.BufferMinutes < 0 {
		opts.BufferMinutes = 0
	}
	return &Generator{
		tick:   time.Duration(opts.TickMinutes) * time.Minute,
		buffer: time.Duration(opts.BufferMinutes) * time.Minute,
		now:    time.Now,
	}
}

// WithClock replaces the generator's time source.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Now returns the generator's current time.
func (g *Generator) Now() time.Time {
	return g.now()
}

// Generate returns the ascending start times at which all requested services
// fit back to back.
func (g *Generator) Generate(req Request) (Day, error) {
	started := time.Now()
	defer func() { metrics.ObserveSlotGeneration(time.Since(started)) }()

	total := TotalDuration(req.Lines)
	if total <= 0 {
		return Day{}, ErrZeroDuration
	}

	day := Day{Date: models.DateKey(req.Date), Slots: []time.Time{}}
	if req.Window == nil || !req.Window.End.After(req.Window.Start) {
		day.Closed = true
		return day, nil
	}

	day.Blocks = Blocks(*req.Window, relevant(req.Appointments, req.StaffID, day.Date))

	now := g.now().In(req.Window.Start.Location())
	cutoff := time.Time{}
	if models.SameDay(now, req.Window.Start) {
		cutoff = now.Add(g.buffer)
	}

	for _, b := range day.Blocks {
		if b.Kind != BlockFree {
			continue
		}
		for tick := b.Start; !tick.Add(total).After(b.End); tick = tick.Add(g.tick) {
			if !cutoff.IsZero() && !tick.After(cutoff) {
				continue
			}
			day.Slots = append(day.Slots, tick)
		}
	}

	return day, nil
}

// Blocks walks the window and splits it into FREE and OCCUPIED blocks.
// Appointments must be sorted by start; ones outside the window are clipped.
func Blocks(window models.Window, appts []models.Appointment) []Block {
	var blocks []Block
	cursor := window.Start

	for _, a := range appts {
		start, end := a.StartTime, a.EndTime
		if !end.After(window.Start) || !start.Before(window.End) {
			continue
		}
		if start.Before(window.Start) {
			start = window.Start
		}
		if end.After(window.End) {
			end = window.End
		}

		if cursor.Before(start) {
			blocks = append(blocks, Block{Start: cursor, End: start, Kind: BlockFree})
		}
		blocks = append(blocks, Block{Start: start, End: end, Kind: BlockOccupied, AppointmentID: a.ID})
		if end.After(cursor) {
			cursor = end
		}
	}

	if cursor.Before(window.End) {
		blocks = append(blocks, Block{Start: cursor, End: window.End, Kind: BlockFree})
	}
	return blocks
}

// TotalDuration sums the line durations.
func TotalDuration(lines []Line) time.Duration {
	var total time.Duration
	for _, l := range lines {
		total += time.Duration(l.DurationMinutes) * time.Minute
	}
	return total
}

// relevant keeps the occupying appointments of one staff on one date, sorted by start.
func relevant(appts []models.Appointment, staffID, date string) []models.Appointment {
	out := make([]models.Appointment, 0, len(appts))
	for _, a := range appts {
		if !a.Occupies() {
			continue
		}
		if staffID != "" && a.StaffID != staffID {
			continue
		}
		if a.Date() != date {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Slot represents a bookable interval.
type Slot struct {
	StartTime time.Time
	EndTime   time.Time
	Available bool
}

// SlotInfo is a simplified representation for UI.
type SlotInfo struct {
	Start     string `json:"start"` // "10:00"
	End       string `json:"end"`   // "11:30"
	Available bool   `json:"available"`
}

// Intervals expands start times into slots spanning the full booking.
func Intervals(starts []time.Time, total time.Duration) []Slot {
	out := make([]Slot, len(starts))
	for i, s := range starts {
		out[i] = Slot{StartTime: s, EndTime: s.Add(total), Available: true}
	}
	return out
}

// ToSlotInfo converts slots to SlotInfo for UI.
func ToSlotInfo(slots []Slot) []SlotInfo {
	result := make([]SlotInfo, len(slots))
	for i, s := range slots {
		result[i] = SlotInfo{
			Start:     s.StartTime.Format("15:04"),
			End:       s.EndTime.Format("15:04"),
			Available: s.Available,
		}
	}
	return result
}

// FormatDuration formats duration in minutes to a human-readable string.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}
