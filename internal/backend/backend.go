package backend

import (
	"context"
	"time"

	"salonbook/internal/models"
)

// SlotLine is one service of a slot query.
type SlotLine struct {
	ServiceID       string `json:"service_id"`
	StaffID         string `json:"staff_id"`
	DurationMinutes int    `json:"duration_minutes"`
}

// AppointmentRequest is the payload of CreateAppointment. For a combined
// booking AdditionalServiceIDs carries the remaining services and the
// service computes the end time; for a chained booking each request carries
// one service with an explicit EndTime.
type AppointmentRequest struct {
	SalonID              string          `json:"salon_id"`
	StaffID              string          `json:"staff_id"`
	ServiceID            string          `json:"service_id"`
	AdditionalServiceIDs []string        `json:"additional_service_ids,omitempty"`
	StartTime            time.Time       `json:"start_time"`
	EndTime              time.Time       `json:"end_time,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	ClientID             string          `json:"client_id,omitempty"`
	Contact              *models.Contact `json:"contact,omitempty"`
}

// Service is the external availability and booking service.
type Service interface {
	GetSlots(ctx context.Context, salonID string, date time.Time, lines []SlotLine) ([]time.Time, error)
	GetMonthCapacity(ctx context.Context, salonID string, month time.Time) ([]models.DayCapacity, error)
	CreateAppointment(ctx context.Context, req AppointmentRequest) (*models.Appointment, error)
}
