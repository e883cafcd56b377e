package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/internal/models"
)

var salonHours = models.WeeklyHours{
	"monday":    {Start: "09:00", End: "17:00", Open: true},
	"tuesday":   {Start: "10:00", End: "19:00", Open: true},
	"wednesday": {Start: "09:00", End: "17:00", Open: false},
	"saturday":  {Start: "08:00", End: "12:00", Open: true},
}

func TestWeekday(t *testing.T) {
	tests := []struct {
		name   string
		day    time.Weekday
		hours  models.WeeklyHours
		want   models.Hours
		isOpen bool
	}{
		{"open", time.Monday, salonHours, models.Hours{Start: 540, End: 1020}, true},
		{"closed flag", time.Wednesday, salonHours, models.Hours{}, false},
		{"missing entry", time.Sunday, salonHours, models.Hours{}, false},
		{"bad time", time.Monday, models.WeeklyHours{"monday": {Start: "x", End: "17:00", Open: true}}, models.Hours{}, false},
		{"empty interval", time.Monday, models.WeeklyHours{"monday": {Start: "12:00", End: "12:00", Open: true}}, models.Hours{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Weekday(tt.day, tt.hours)
			assert.Equal(t, tt.isOpen, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NoMerging(t *testing.T) {
	staff := &models.Staff{
		ID:    "anna",
		Hours: models.WeeklyHours{"sunday": {Start: "11:00", End: "15:00", Open: true}},
	}

	// Salon is closed on Sunday but the staff-scoped query ignores salon hours.
	h, ok := Resolve(time.Sunday, staff, salonHours)
	require.True(t, ok)
	assert.Equal(t, models.Hours{Start: 660, End: 900}, h)

	// Salon open on Monday but staff has no Monday entry.
	_, ok = Resolve(time.Monday, staff, salonHours)
	assert.False(t, ok)

	h, ok = Resolve(time.Monday, nil, salonHours)
	require.True(t, ok)
	assert.Equal(t, models.Hours{Start: 540, End: 1020}, h)
}

func TestResolveDate(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	w := ResolveDate(monday, nil, salonHours)
	require.NotNil(t, w)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, 480, w.Minutes())

	assert.Nil(t, ResolveDate(monday.AddDate(0, 0, 2), nil, salonHours))
}

func TestSpan(t *testing.T) {
	span, ok := Span(salonHours)
	require.True(t, ok)
	assert.Equal(t, "08:00", span.Start.String())
	assert.Equal(t, "19:00", span.End.String())

	_, ok = Span(models.WeeklyHours{})
	assert.False(t, ok)
}

func TestCheckDate(t *testing.T) {
	ex := models.Exceptions{
		Vacations: []models.Vacation{
			{Title: "Spring holidays", StartDate: "2025-03-17", EndDate: "2025-03-18", Active: true},
			{StartDate: "2025-03-24", EndDate: "2025-03-24", Active: true},
			{Title: "Cancelled trip", StartDate: "2025-03-31", EndDate: "2025-03-31", Active: false},
		},
		Breaks: []models.Break{
			{Title: "Inventory", Type: models.BreakSpecificDate, Date: "2025-03-11", Active: true},
			{Type: models.BreakDateRange, StartDate: "2025-03-24", EndDate: "2025-03-25", Active: true},
		},
	}
	staff := &models.Staff{Hours: models.WeeklyHours{"monday": {Start: "09:00", End: "17:00", Open: true}}}

	tests := []struct {
		name  string
		date  string
		staff *models.Staff
		want  Exclusion
	}{
		{"open day", "2025-03-10", nil, Exclusion{Available: true}},
		{"salon closed", "2025-03-12", nil, Exclusion{Kind: KindNonWorkingDay, Reason: ReasonNonWorkingDay}},
		{"vacation title", "2025-03-18", nil, Exclusion{Kind: KindVacation, Reason: "Spring holidays"}},
		{"vacation wins over break", "2025-03-24", nil, Exclusion{Kind: KindVacation, Reason: ReasonVacation}},
		{"inactive vacation", "2025-03-31", nil, Exclusion{Available: true}},
		{"specific break", "2025-03-11", nil, Exclusion{Kind: KindBreak, Reason: "Inventory"}},
		{"range break untitled", "2025-03-25", nil, Exclusion{Kind: KindBreak, Reason: ReasonBreak}},
		{"staff off", "2025-03-04", staff, Exclusion{Kind: KindStaffOff, Reason: ReasonStaffOff}},
		{"staff on", "2025-03-10", staff, Exclusion{Available: true}},
		{"salon closed beats staff", "2025-03-12", staff, Exclusion{Kind: KindNonWorkingDay, Reason: ReasonNonWorkingDay}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, err := models.ParseDate(tt.date, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.want, CheckDate(date, salonHours, ex, tt.staff))
		})
	}
}
