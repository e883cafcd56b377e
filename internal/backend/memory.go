package backend

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"salonbook/internal/capacity"
	"salonbook/internal/models"
	"salonbook/internal/schedule"
	"salonbook/internal/slots"
)

// Memory is an in-process Service over a catalog and an appointment list.
// CreateAppointment is serialized, which makes it the authoritative
// conflict check for local runs.
type Memory struct {
	generator  *slots.Generator
	aggregator *capacity.Aggregator

	mu           sync.RWMutex
	catalog      *models.Catalog
	appointments []models.Appointment
}

// NewMemory creates an in-memory backend.
func NewMemory(cat *models.Catalog, gen *slots.Generator, agg *capacity.Aggregator) *Memory {
	return &Memory{catalog: cat, generator: gen, aggregator: agg}
}

// SetCatalog swaps the catalog, e.g. after a config reload.
func (m *Memory) SetCatalog(cat *models.Catalog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = cat
}

// Seed adds existing appointments.
func (m *Memory) Seed(appts ...models.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments = append(m.appointments, appts...)
}

// Appointments returns a copy of all stored appointments ordered by start.
func (m *Memory) Appointments() []models.Appointment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]models.Appointment(nil), m.appointments...)
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// GetSlots runs the slot generator against the staff's own hours.
func (m *Memory) GetSlots(_ context.Context, salonID string, date time.Time, lines []SlotLine) ([]time.Time, error) {
	const op = "get_slots"

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkSalon(op, salonID); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, validationf(op, "no services requested")
	}

	staff, ok := m.catalog.StaffMember(lines[0].StaffID)
	if !ok {
		return nil, validationf(op, "unknown staff %q", lines[0].StaffID)
	}

	gl := make([]slots.Line, len(lines))
	for i, l := range lines {
		if l.StaffID != staff.ID {
			return nil, validationf(op, "all services must use the same staff")
		}
		gl[i] = slots.Line{ServiceID: l.ServiceID, DurationMinutes: l.DurationMinutes}
	}

	salon := m.catalog.Salon
	if ex := schedule.CheckDate(date, salon.Hours, salon.Exceptions, &staff); !ex.Available {
		return []time.Time{}, nil
	}

	day, err := m.generator.Generate(slots.Request{
		Date:         date,
		StaffID:      staff.ID,
		Lines:        gl,
		Appointments: m.appointments,
		Window:       schedule.ResolveDate(date, &staff, salon.Hours),
	})
	if err != nil {
		return nil, &Error{Kind: KindValidation, Op: op, Err: err}
	}
	return day.Slots, nil
}

// GetMonthCapacity aggregates capacity against salon hours.
func (m *Memory) GetMonthCapacity(_ context.Context, salonID string, month time.Time) ([]models.DayCapacity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkSalon("get_capacity", salonID); err != nil {
		return nil, err
	}
	hours := m.catalog.Salon.Hours
	return m.aggregator.Month(month, m.appointments, func(d time.Time) *models.Window {
		if w := schedule.ResolveDate(d, nil, hours); w != nil {
			return w
		}
		return capacity.ClosedWindow(d)
	}), nil
}

// CreateAppointment stores an appointment unless it overlaps the staff's
// existing ones or leaves their working window.
func (m *Memory) CreateAppointment(_ context.Context, req AppointmentRequest) (*models.Appointment, error) {
	const op = "create_appointment"

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkSalon(op, req.SalonID); err != nil {
		return nil, err
	}
	if req.StartTime.IsZero() {
		return nil, validationf(op, "start time is required")
	}

	staff, ok := m.catalog.StaffMember(req.StaffID)
	if !ok {
		return nil, validationf(op, "unknown staff %q", req.StaffID)
	}

	ids := append([]string{req.ServiceID}, req.AdditionalServiceIDs...)
	var total time.Duration
	for _, id := range ids {
		svc, ok := m.catalog.Service(id)
		if !ok {
			return nil, validationf(op, "unknown service %q", id)
		}
		total += svc.Duration()
	}
	if !staff.CanPerform(ids...) {
		return nil, validationf(op, "staff %q cannot perform the requested services", staff.ID)
	}

	end := req.EndTime
	if end.IsZero() {
		end = req.StartTime.Add(total)
	}
	if end.Before(req.StartTime) {
		return nil, validationf(op, "appointment ends before it starts")
	}

	window := schedule.ResolveDate(req.StartTime, &staff, m.catalog.Salon.Hours)
	if window == nil || !window.Contains(req.StartTime, end) {
		return nil, conflictf(op, "staff %q is not available at %s", staff.ID, req.StartTime.Format(time.RFC3339))
	}

	for _, a := range m.appointments {
		if a.StaffID == staff.ID && a.Occupies() && a.OverlapsWith(req.StartTime, end) {
			return nil, conflictf(op, "slot %s is no longer available", req.StartTime.Format("15:04"))
		}
	}

	appt := models.Appointment{
		ID:        uuid.NewString(),
		StaffID:   staff.ID,
		ServiceID: req.ServiceID,
		StartTime: req.StartTime,
		EndTime:   end,
		Status:    models.StatusConfirmed,
		Notes:     req.Notes,
	}
	m.appointments = append(m.appointments, appt)
	return &appt, nil
}

func (m *Memory) checkSalon(op, salonID string) error {
	if m.catalog == nil {
		return &Error{Kind: KindOther, Op: op, Message: "catalog not loaded"}
	}
	if salonID != "" && salonID != m.catalog.Salon.ID {
		return validationf(op, "unknown salon %q", salonID)
	}
	return nil
}
