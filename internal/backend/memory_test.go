package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/internal/capacity"
	"salonbook/internal/models"
	"salonbook/internal/slots"
)

func testCatalog() *models.Catalog {
	hours := models.WeeklyHours{
		"monday":  {Start: "10:00", End: "12:00", Open: true},
		"tuesday": {Start: "10:00", End: "12:00", Open: true},
	}
	return &models.Catalog{
		Salon: models.Salon{
			ID:    "s1",
			Hours: models.WeeklyHours{"monday": {Start: "09:00", End: "17:00", Open: true}, "tuesday": {Start: "09:00", End: "17:00", Open: true}},
			Exceptions: models.Exceptions{Breaks: []models.Break{
				{Title: "Inventory", Type: models.BreakSpecificDate, Date: "2025-03-11", Active: true},
			}},
		},
		Services: []models.Service{
			{ID: "cut", DurationMinutes: 30},
			{ID: "color", DurationMinutes: 60},
			{ID: "gloss", DurationMinutes: 0},
		},
		Staff: []models.Staff{
			{ID: "anna", Hours: hours, CapableServiceIDs: []string{"cut", "color", "gloss"}},
			{ID: "boris", Hours: hours, CapableServiceIDs: []string{"cut"}},
		},
	}
}

func newTestMemory() *Memory {
	gen := slots.NewGenerator(slots.Options{}).WithClock(func() time.Time {
		return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	})
	return NewMemory(testCatalog(), gen, capacity.NewAggregator(capacity.CountBased))
}

func mon(h, m int) time.Time { return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC) }

func TestMemory_GetSlots(t *testing.T) {
	m := newTestMemory()
	m.Seed(models.Appointment{ID: "x", StaffID: "anna", StartTime: mon(10, 0), EndTime: mon(10, 30), Status: models.StatusConfirmed})
	ctx := context.Background()

	got, err := m.GetSlots(ctx, "s1", slotDate, []SlotLine{{ServiceID: "color", StaffID: "anna", DurationMinutes: 60}})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{mon(10, 30), mon(11, 0)}, got)

	got, err = m.GetSlots(ctx, "s1", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), []SlotLine{{ServiceID: "cut", StaffID: "anna", DurationMinutes: 30}})
	require.NoError(t, err)
	assert.Empty(t, got, "break day has no slots")

	_, err = m.GetSlots(ctx, "other", slotDate, []SlotLine{{ServiceID: "cut", StaffID: "anna", DurationMinutes: 30}})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = m.GetSlots(ctx, "s1", slotDate, []SlotLine{{ServiceID: "gloss", StaffID: "anna", DurationMinutes: 0}})
	assert.ErrorIs(t, err, slots.ErrZeroDuration)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestMemory_CreateAppointment(t *testing.T) {
	m := newTestMemory()
	ctx := context.Background()

	combined, err := m.CreateAppointment(ctx, AppointmentRequest{
		SalonID:              "s1",
		StaffID:              "anna",
		ServiceID:            "cut",
		AdditionalServiceIDs: []string{"color"},
		StartTime:            mon(10, 0),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, combined.ID)
	assert.Equal(t, mon(11, 30), combined.EndTime)
	assert.Equal(t, models.StatusConfirmed, combined.Status)

	_, err = m.CreateAppointment(ctx, AppointmentRequest{SalonID: "s1", StaffID: "anna", ServiceID: "cut", StartTime: mon(11, 0)})
	assert.True(t, IsConflict(err))

	_, err = m.CreateAppointment(ctx, AppointmentRequest{SalonID: "s1", StaffID: "anna", ServiceID: "cut", StartTime: mon(11, 45)})
	assert.True(t, IsConflict(err), "past the end of the working window")

	_, err = m.CreateAppointment(ctx, AppointmentRequest{SalonID: "s1", StaffID: "boris", ServiceID: "color", StartTime: mon(10, 0)})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = m.CreateAppointment(ctx, AppointmentRequest{SalonID: "s1", StaffID: "boris", ServiceID: "cut"})
	assert.Equal(t, KindValidation, KindOf(err))

	booked, err := m.CreateAppointment(ctx, AppointmentRequest{SalonID: "s1", StaffID: "boris", ServiceID: "cut", StartTime: mon(10, 0), EndTime: mon(10, 30)})
	require.NoError(t, err)
	assert.Equal(t, "boris", booked.StaffID)
	assert.Len(t, m.Appointments(), 2)
}

func TestMemory_GetMonthCapacity(t *testing.T) {
	m := newTestMemory()
	for i := 0; i < 12; i++ {
		start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC).Add(time.Duration(i) * 30 * time.Minute)
		m.Seed(models.Appointment{ID: "a", StaffID: "anna", StartTime: start, EndTime: start.Add(30 * time.Minute), Status: models.StatusConfirmed})
	}

	days, err := m.GetMonthCapacity(context.Background(), "s1", slotDate)
	require.NoError(t, err)
	require.Len(t, days, 31)
	assert.Equal(t, "2025-03-10", days[9].Date)
	assert.Equal(t, 75, days[9].Percentage)
	assert.Equal(t, models.ColorYellow, days[9].Color)

	sunday := days[8]
	assert.Equal(t, "2025-03-09", sunday.Date)
	assert.Equal(t, 0, sunday.TotalSlots)
	assert.Equal(t, 0, sunday.FreeSlots)
	assert.Equal(t, models.ColorGray, sunday.Color)
}

func TestMemory_NoCatalog(t *testing.T) {
	m := NewMemory(nil, slots.NewGenerator(slots.Options{}), capacity.NewAggregator(capacity.CountBased))
	_, err := m.GetMonthCapacity(context.Background(), "s1", slotDate)
	assert.Equal(t, KindOther, KindOf(err))

	m.SetCatalog(testCatalog())
	_, err = m.GetMonthCapacity(context.Background(), "s1", slotDate)
	assert.NoError(t, err)
}
