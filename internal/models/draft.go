package models

import "time"

// Contact holds guest client details.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Draft is the in-progress booking collected by the wizard. It is never
// persisted partially.
type Draft struct {
	ServiceIDs []string  `json:"service_ids"`
	StaffID    string    `json:"staff_id,omitempty"`
	Date       string    `json:"date,omitempty"`
	StartTime  time.Time `json:"start_time,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	ClientID   string    `json:"client_id,omitempty"`
	Contact    *Contact  `json:"contact,omitempty"`
}

// HasTime reports whether a start time is selected.
func (d Draft) HasTime() bool {
	return !d.StartTime.IsZero()
}
