package booking

import (
	"errors"
	"fmt"

	"salonbook/internal/models"
)

var (
	ErrInvalidState     = errors.New("action not allowed in current step")
	ErrClosed           = errors.New("booking session closed")
	ErrNoCatalog        = errors.New("salon catalog not loaded")
	ErrAuthPathRequired = errors.New("choose to continue as guest or sign in")
	ErrClientIDRequired = errors.New("client id is required to sign in")

	ErrNoServices      = errors.New("select at least one service")
	ErrUnknownService  = errors.New("unknown service")
	ErrUnfilledService = errors.New("every service slot must be filled")
	ErrAddOnFirst      = errors.New("an add-on cannot be the first service")
	ErrZeroDuration    = errors.New("total service duration is zero")
	ErrNoEligibleStaff = errors.New("no staff member can perform all selected services")

	ErrNoStaffSelected = errors.New("select a staff member")
	ErrUnknownStaff    = errors.New("unknown staff member")
	ErrStaffNotCapable = errors.New("staff member cannot perform all selected services")

	ErrNoDate         = errors.New("select a date")
	ErrPastDate       = errors.New("date is in the past")
	ErrTooFarAhead    = errors.New("date is beyond the booking window")
	ErrDateExcluded   = errors.New("date is not available")
	ErrDateFull       = errors.New("date is fully booked")
	ErrNoSlots        = errors.New("no free time on this date")
	ErrNoTime         = errors.New("select a time")
	ErrSlotNotOffered = errors.New("time is not available")

	ErrContactRequired = errors.New("contact details are required")
	ErrInvalidName     = errors.New("name may contain only letters, spaces, hyphens and apostrophes")
	ErrInvalidPhone    = errors.New("phone number must contain 10 to 15 digits")
	ErrInvalidEmail    = errors.New("invalid email address")

	ErrPartialBooking = errors.New("earlier appointments are already booked, retry to book the rest")
)

// PartialError reports a chained submission that failed after creating some
// of its appointments.
type PartialError struct {
	Created     []models.Appointment
	FailedIndex int
	Total       int
	Err         error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("created %d of %d appointments, service %d failed: %v", len(e.Created), e.Total, e.FailedIndex+1, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// CreatedIDs returns the ids of the appointments that were created.
func (e *PartialError) CreatedIDs() []string {
	ids := make([]string, len(e.Created))
	for i, a := range e.Created {
		ids[i] = a.ID
	}
	return ids
}
