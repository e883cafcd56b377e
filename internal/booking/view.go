package booking

import (
	"sort"

	"salonbook/internal/availability"
	"salonbook/internal/models"
	"salonbook/internal/slots"
)

// StaffOption is a staff member offered at the staff step.
type StaffOption struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// View is what the UI layer renders for a session.
type View struct {
	SessionID       string                `json:"session_id"`
	State           State                 `json:"state"`
	Guest           bool                  `json:"guest"`
	Draft           models.Draft          `json:"draft"`
	TotalMinutes    int                   `json:"total_minutes"`
	TotalLabel      string                `json:"total_label,omitempty"`
	StaffCandidates []StaffOption         `json:"staff_candidates,omitempty"`
	Validation      map[State]string      `json:"validation,omitempty"`
	Slots           []slots.SlotInfo      `json:"slots,omitempty"`
	Capacity        []models.DayCapacity  `json:"capacity,omitempty"`
	Availability    availability.Snapshot `json:"availability"`
	Appointments    []models.Appointment  `json:"appointments,omitempty"`
	Error           *SubmitFailure        `json:"error,omitempty"`
}

// View returns a snapshot of the session for rendering.
func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		SessionID:    w.id,
		State:        w.state,
		Guest:        w.guest,
		Draft:        w.draft,
		Validation:   make(map[State]string, len(w.validation)),
		Availability: w.probe.Snapshot(),
		Appointments: append([]models.Appointment(nil), w.result...),
		Error:        w.lastErr,
	}
	v.Draft.ServiceIDs = append([]string(nil), w.draft.ServiceIDs...)
	for k, msg := range w.validation {
		v.Validation[k] = msg
	}

	if cat, err := w.catalog(); err == nil {
		var services []models.Service
		for _, id := range filled(w.draft.ServiceIDs) {
			if s, ok := cat.Service(id); ok {
				services = append(services, s)
			}
		}
		total := models.TotalDuration(services)
		v.TotalMinutes = int(total.Minutes())
		if v.TotalMinutes > 0 {
			v.TotalLabel = slots.FormatDuration(v.TotalMinutes)
		}

		for _, s := range cat.Qualified(filled(w.draft.ServiceIDs)) {
			v.StaffCandidates = append(v.StaffCandidates, StaffOption{
				ID:       s.ID,
				Name:     s.Name,
				Selected: s.ID == w.draft.StaffID,
			})
		}

		if len(w.candidates) > 0 {
			v.Slots = slots.ToSlotInfo(slots.Intervals(w.candidates, total))
		}
	}

	for _, c := range w.capacity {
		v.Capacity = append(v.Capacity, c)
	}
	sort.Slice(v.Capacity, func(i, j int) bool { return v.Capacity[i].Date < v.Capacity[j].Date })
	return v
}
