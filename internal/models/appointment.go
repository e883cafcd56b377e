package models

import "time"

// AppointmentStatus is the lifecycle status of an appointment.
type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "pending"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
)

// Appointment is an existing booking of one service by one staff member.
type Appointment struct {
	ID        string            `json:"id"`
	StaffID   string            `json:"staff_id"`
	ServiceID string            `json:"service_id"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Status    AppointmentStatus `json:"status"`
	Notes     string            `json:"notes,omitempty"`
}

// Date returns the calendar day of the appointment (YYYY-MM-DD).
func (a Appointment) Date() string {
	return DateKey(a.StartTime)
}

func (a Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// Occupies reports whether the appointment blocks the staff's time.
func (a Appointment) Occupies() bool {
	return a.Status != StatusCancelled
}

// CountsTowardCapacity reports whether the appointment is counted as occupied
// in day capacity.
func (a Appointment) CountsTowardCapacity() bool {
	switch a.Status {
	case StatusConfirmed, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// OverlapsWith checks [start, end) against the appointment using half-open
// interval semantics.
func (a Appointment) OverlapsWith(start, end time.Time) bool {
	return start.Before(a.EndTime) && a.StartTime.Before(end)
}
