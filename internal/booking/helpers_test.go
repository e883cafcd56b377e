package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salonbook/internal/backend"
	"salonbook/internal/capacity"
	"salonbook/internal/events"
	"salonbook/internal/models"
	"salonbook/internal/slots"
)

var testNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) // Monday

func at(day, h, m int) time.Time {
	return time.Date(2025, 3, day, h, m, 0, 0, time.UTC)
}

type staticCatalog struct{ cat *models.Catalog }

func (s staticCatalog) Catalog() *models.Catalog { return s.cat }

func testCatalog() *models.Catalog {
	open := func(start, end string) models.DayHours { return models.DayHours{Start: start, End: end, Open: true} }
	salon := models.WeeklyHours{}
	boris := models.WeeklyHours{}
	anna := models.WeeklyHours{}
	for _, d := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"} {
		salon[d] = open("09:00", "17:00")
		boris[d] = open("09:00", "17:00")
		if d != "saturday" {
			anna[d] = open("10:00", "12:00")
		}
	}

	return &models.Catalog{
		Salon: models.Salon{
			ID:    "s1",
			Name:  "Studio",
			Hours: salon,
			Exceptions: models.Exceptions{Vacations: []models.Vacation{
				{Title: "Spring break", StartDate: "2025-03-20", EndDate: "2025-03-21", Active: true},
			}},
		},
		Services: []models.Service{
			{ID: "cut", Name: "Haircut", DurationMinutes: 30, Price: 25},
			{ID: "color", Name: "Coloring", DurationMinutes: 60, Price: 80},
			{ID: "gloss", Name: "Gloss", DurationMinutes: 0, Price: 10},
			{ID: "nails", Name: "Manicure", DurationMinutes: 45, Price: 30},
		},
		Staff: []models.Staff{
			{ID: "anna", Name: "Anna", Hours: anna, CapableServiceIDs: []string{"cut", "color", "gloss"}},
			{ID: "boris", Name: "Boris", Hours: boris, CapableServiceIDs: []string{"cut", "nails"}},
		},
	}
}

// countingBackend wraps a backend, counting slot queries per date and
// optionally failing CreateAppointment.
type countingBackend struct {
	backend.Service

	mu         sync.Mutex
	slotCalls  map[string]int
	createErr  error
	serviceErr map[string]error
}

func (c *countingBackend) GetSlots(ctx context.Context, salonID string, date time.Time, lines []backend.SlotLine) ([]time.Time, error) {
	c.mu.Lock()
	c.slotCalls[models.DateKey(date)]++
	c.mu.Unlock()
	return c.Service.GetSlots(ctx, salonID, date, lines)
}

func (c *countingBackend) CreateAppointment(ctx context.Context, req backend.AppointmentRequest) (*models.Appointment, error) {
	c.mu.Lock()
	err := c.createErr
	if e, ok := c.serviceErr[req.ServiceID]; ok {
		err = e
		delete(c.serviceErr, req.ServiceID)
	}
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Service.CreateAppointment(ctx, req)
}

func (c *countingBackend) calls(date string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slotCalls[date]
}

func (c *countingBackend) failCreate(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createErr = err
}

// failServiceOnce fails the next create for serviceID only.
func (c *countingBackend) failServiceOnce(serviceID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.serviceErr == nil {
		c.serviceErr = make(map[string]error)
	}
	c.serviceErr[serviceID] = err
}

type fixture struct {
	mem  *backend.Memory
	be   *countingBackend
	deps Deps

	mu     sync.Mutex
	events []events.Event
}

func newFixture(t *testing.T, strategy Strategy) *fixture {
	t.Helper()
	cat := testCatalog()
	gen := slots.NewGenerator(slots.Options{}).WithClock(func() time.Time { return testNow })
	mem := backend.NewMemory(cat, gen, capacity.NewAggregator(capacity.CountBased))
	be := &countingBackend{Service: mem, slotCalls: make(map[string]int)}

	sub, err := NewSubmitter(strategy, be)
	require.NoError(t, err)

	f := &fixture{mem: mem, be: be}
	bus := events.NewEventBus(zerolog.Nop())
	bus.Subscribe(events.TypeAll, func(e events.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.events = append(f.events, e)
		return nil
	})

	f.deps = Deps{
		Catalog:   staticCatalog{cat: cat},
		Backend:   be,
		Submitter: sub,
		Events:    bus,
		Settings:  Settings{MaxAdvanceDays: 30, Location: time.UTC},
		Now:       func() time.Time { return testNow },
		Logger:    zerolog.Nop(),
	}
	return f
}

func (f *fixture) wizard(entry Entry) *Wizard {
	return NewWizard("sess-1", entry, "client-1", f.deps)
}

func (f *fixture) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		if e.Type != events.TypeStepChanged {
			out = append(out, e.Type)
		}
	}
	return out
}

func waitProbe(t *testing.T, w *Wizard) {
	t.Helper()
	select {
	case <-w.probe.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("availability scan did not finish")
	}
}

// toTimeStep drives a signed-in wizard to the time step.
func toTimeStep(t *testing.T, w *Wizard, services []string, staffID string, date time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, w.SetServices(services))
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.SelectStaff(staffID))
	require.NoError(t, w.Next(ctx))
	waitProbe(t, w)
	require.NoError(t, w.SelectDate(ctx, date))
	require.NoError(t, w.Next(ctx))
	require.Equal(t, StateSelectingTime, w.State())
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) GetSlots(ctx context.Context, salonID string, date time.Time, lines []backend.SlotLine) ([]time.Time, error) {
	args := m.Called(ctx, salonID, date, lines)
	v, _ := args.Get(0).([]time.Time)
	return v, args.Error(1)
}

func (m *mockBackend) GetMonthCapacity(ctx context.Context, salonID string, month time.Time) ([]models.DayCapacity, error) {
	args := m.Called(ctx, salonID, month)
	v, _ := args.Get(0).([]models.DayCapacity)
	return v, args.Error(1)
}

func (m *mockBackend) CreateAppointment(ctx context.Context, req backend.AppointmentRequest) (*models.Appointment, error) {
	args := m.Called(ctx, req)
	v, _ := args.Get(0).(*models.Appointment)
	return v, args.Error(1)
}
