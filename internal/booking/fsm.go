// Package booking implements the booking wizard: a state machine that walks a
// client from service selection to a submitted appointment.
package booking

// State represents the current step of the booking wizard.
type State string

const (
	StateChoosingAuthPath  State = "choosing_auth_path"
	StateSelectingServices State = "selecting_services"
	StateSelectingStaff    State = "selecting_staff"
	StateSelectingDate     State = "selecting_date"
	StateSelectingTime     State = "selecting_time"
	StateCollectingContact State = "collecting_contact_info"
	StateConfirming        State = "confirming"
	StateSubmitting        State = "submitting"
	StateSucceeded         State = "succeeded"
	StateFailed            State = "failed"
)

// FSM holds the allowed state transitions.
type FSM struct {
	transitions map[State][]State
}

// NewFSM creates a new FSM with predefined transitions.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateChoosingAuthPath:  {StateSelectingServices},
			StateSelectingServices: {StateSelectingStaff, StateChoosingAuthPath},
			StateSelectingStaff:    {StateSelectingDate, StateSelectingServices},
			StateSelectingDate:     {StateSelectingTime, StateSelectingStaff},
			StateSelectingTime:     {StateCollectingContact, StateConfirming, StateSelectingDate},
			StateCollectingContact: {StateConfirming, StateSelectingTime},
			StateConfirming:        {StateSubmitting, StateCollectingContact, StateSelectingTime},
			StateSubmitting:        {StateSucceeded, StateFailed, StateSelectingTime},
			StateFailed:            {StateSubmitting, StateConfirming},
			StateSucceeded:         {},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
