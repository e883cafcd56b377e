package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"salonbook/internal/availability"
	"salonbook/internal/backend"
	"salonbook/internal/events"
	"salonbook/internal/metrics"
	"salonbook/internal/models"
	"salonbook/internal/schedule"
	"salonbook/internal/slots"
)

// CatalogSource provides the current salon catalog.
type CatalogSource interface {
	Catalog() *models.Catalog
}

// Entry is how the wizard was opened.
type Entry string

const (
	// EntryGuest starts at the auth path choice and collects contact details.
	EntryGuest Entry = "guest"
	// EntryClient is a signed-in client; both guest-only steps are skipped.
	EntryClient Entry = "client"
)

// AuthPath is the choice made at the first guest step.
type AuthPath string

const (
	AuthGuest  AuthPath = "guest"
	AuthSignIn AuthPath = "sign_in"
)

// Settings are the booking rules shared by all wizards.
type Settings struct {
	MaxAdvanceDays int
	Location       *time.Location
	ProbeBatchSize int
}

// Deps are the collaborators of a Wizard.
type Deps struct {
	Catalog   CatalogSource
	Backend   backend.Service
	Submitter Submitter
	Events    *events.EventBus
	Settings  Settings
	Now       func() time.Time
	Logger    zerolog.Logger
}

// SubmitFailure describes the last failed submission.
type SubmitFailure struct {
	Kind        backend.ErrorKind `json:"kind"`
	Message     string            `json:"message"`
	CreatedIDs  []string          `json:"created_ids,omitempty"`
	FailedIndex int               `json:"failed_index,omitempty"`
	Total       int               `json:"total,omitempty"`
}

// Wizard is one booking session. All methods are safe for concurrent use;
// each wizard owns its draft exclusively.
type Wizard struct {
	id     string
	deps   Deps
	fsm    *FSM
	probe  *availability.Probe
	logger zerolog.Logger

	mu         sync.Mutex
	state      State
	entry      Entry
	guest      bool
	authChosen bool
	draft      models.Draft
	candidates []time.Time
	month      time.Time
	capacity   map[string]models.DayCapacity
	validation map[State]string
	lastErr    *SubmitFailure
	result     []models.Appointment
	partial    []models.Appointment
	closed     bool
	updatedAt  time.Time
}

// NewWizard creates a wizard. clientID is used for EntryClient only.
func NewWizard(id string, entry Entry, clientID string, deps Deps) *Wizard {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Settings.Location == nil {
		deps.Settings.Location = time.UTC
	}

	w := &Wizard{
		id:         id,
		deps:       deps,
		fsm:        NewFSM(),
		logger:     deps.Logger.With().Str("component", "booking_wizard").Str("session", id).Logger(),
		entry:      entry,
		capacity:   make(map[string]models.DayCapacity),
		validation: make(map[State]string),
		updatedAt:  deps.Now(),
	}
	w.probe = availability.NewProbe(
		availability.SlotSourceFunc(w.querySlots),
		availability.Options{BatchSize: deps.Settings.ProbeBatchSize},
		deps.Logger,
	).WithClock(deps.Now)

	if entry == EntryClient {
		w.state = StateSelectingServices
		w.authChosen = true
		w.draft.ClientID = clientID
	} else {
		w.entry = EntryGuest
		w.state = StateChoosingAuthPath
		w.guest = true
	}
	return w
}

// ID returns the session id.
func (w *Wizard) ID() string { return w.id }

// State returns the current step.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// IsExpired checks if the wizard has been idle longer than timeout.
func (w *Wizard) IsExpired(timeout time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deps.Now().Sub(w.updatedAt) > timeout
}

// ChooseAuthPath records whether a guest continues as guest or signs in.
func (w *Wizard) ChooseAuthPath(path AuthPath, clientID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateChoosingAuthPath); err != nil {
		return err
	}

	switch path {
	case AuthGuest:
		w.guest = true
		w.draft.ClientID = ""
	case AuthSignIn:
		if clientID == "" {
			return w.fail(ErrClientIDRequired)
		}
		w.guest = false
		w.draft.ClientID = clientID
		w.draft.Contact = nil
	default:
		return w.fail(ErrAuthPathRequired)
	}
	w.authChosen = true
	w.ok()
	return w.transition(StateSelectingServices)
}

// SetServices replaces the whole ordered service list. Empty ids are
// unfilled service slots.
func (w *Wizard) SetServices(ids []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateSelectingServices); err != nil {
		return err
	}
	return w.applyServices(append([]string(nil), ids...))
}

// SelectService fills service slot index; index == len adds a new slot.
func (w *Wizard) SelectService(index int, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateSelectingServices); err != nil {
		return err
	}

	ids := append([]string(nil), w.draft.ServiceIDs...)
	switch {
	case index == len(ids):
		ids = append(ids, id)
	case index >= 0 && index < len(ids):
		ids[index] = id
	default:
		return w.fail(fmt.Errorf("%w: no service slot %d", ErrInvalidState, index))
	}
	return w.applyServices(ids)
}

// AddServiceSlot appends an unfilled service slot.
func (w *Wizard) AddServiceSlot() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateSelectingServices); err != nil {
		return err
	}
	return w.applyServices(append(append([]string(nil), w.draft.ServiceIDs...), ""))
}

// RemoveServiceSlot drops service slot index.
func (w *Wizard) RemoveServiceSlot(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateSelectingServices); err != nil {
		return err
	}
	if index < 0 || index >= len(w.draft.ServiceIDs) {
		return w.fail(fmt.Errorf("%w: no service slot %d", ErrInvalidState, index))
	}

	ids := append([]string(nil), w.draft.ServiceIDs[:index]...)
	ids = append(ids, w.draft.ServiceIDs[index+1:]...)
	return w.applyServices(ids)
}

// StaffCandidates returns the staff capable of every selected service.
func (w *Wizard) StaffCandidates() ([]models.Staff, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cat, err := w.catalog()
	if err != nil {
		return nil, err
	}
	return cat.Qualified(filled(w.draft.ServiceIDs)), nil
}

// SelectStaff chooses the staff member. Changing it clears date and time.
func (w *Wizard) SelectStaff(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateSelectingStaff); err != nil {
		return err
	}

	cat, err := w.catalog()
	if err != nil {
		return w.fail(err)
	}
	staff, ok := cat.StaffMember(id)
	if !ok {
		return w.fail(fmt.Errorf("%w: %q", ErrUnknownStaff, id))
	}
	if !staff.CanPerform(filled(w.draft.ServiceIDs)...) {
		return w.fail(ErrStaffNotCapable)
	}

	if w.draft.StaffID != id {
		w.draft.StaffID = id
		w.clearFromDate()
	}
	w.ok()
	return nil
}

// ShowMonth loads month capacity and starts an availability scan for it.
func (w *Wizard) ShowMonth(ctx context.Context, month time.Time) (availability.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateSelectingDate); err != nil {
		return availability.Snapshot{}, err
	}

	cat, err := w.catalog()
	if err != nil {
		return availability.Snapshot{}, w.fail(err)
	}
	w.showMonth(ctx, cat, month)
	return w.probe.Snapshot(), nil
}

// Availability returns the latest scan snapshot.
func (w *Wizard) Availability() availability.Snapshot {
	return w.probe.Snapshot()
}

// SelectDate validates and selects a date, loading its candidate times.
func (w *Wizard) SelectDate(ctx context.Context, date time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateSelectingDate); err != nil {
		return err
	}

	cat, err := w.catalog()
	if err != nil {
		return w.fail(err)
	}
	staff, ok := cat.StaffMember(w.draft.StaffID)
	if !ok {
		return w.fail(ErrNoStaffSelected)
	}

	loc := w.deps.Settings.Location
	y, m, d := date.Date()
	date = time.Date(y, m, d, 0, 0, 0, 0, loc)
	today := models.StartOfDay(w.deps.Now().In(loc))
	if date.Before(today) {
		return w.fail(ErrPastDate)
	}
	if limit := w.deps.Settings.MaxAdvanceDays; limit > 0 && date.After(today.AddDate(0, 0, limit)) {
		return w.fail(fmt.Errorf("%w (%d days)", ErrTooFarAhead, limit))
	}

	if ex := schedule.CheckDate(date, cat.Salon.Hours, cat.Salon.Exceptions, &staff); !ex.Available {
		return w.fail(fmt.Errorf("%w: %s", ErrDateExcluded, ex.Reason))
	}
	key := models.DateKey(date)
	if c, ok := w.capacity[key]; ok && !c.Bookable() {
		return w.fail(ErrDateFull)
	}

	lines, err := w.lines(cat)
	if err != nil {
		return w.fail(err)
	}
	candidates, err := w.querySlots(ctx, date, staff.ID, lines)
	if err != nil {
		return w.fail(fmt.Errorf("load slots: %w", err))
	}
	if len(candidates) == 0 {
		return w.fail(ErrNoSlots)
	}

	if w.draft.Date != key {
		w.draft.Date = key
		w.draft.StartTime = time.Time{}
	}
	w.candidates = candidates
	w.ok()
	return nil
}

// Slots returns the current candidate start times.
func (w *Wizard) Slots() []time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Time(nil), w.candidates...)
}

// RefreshSlots re-queries candidates for the selected date. A selected time
// that is no longer offered is cleared.
func (w *Wizard) RefreshSlots(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateSelectingTime); err != nil {
		return err
	}
	if err := w.reloadSlots(ctx); err != nil {
		return w.fail(err)
	}
	return nil
}

// SelectTime picks one of the current candidates.
func (w *Wizard) SelectTime(t time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateSelectingTime); err != nil {
		return err
	}
	if !w.offers(t) {
		return w.fail(fmt.Errorf("%w: %s", ErrSlotNotOffered, t.Format("15:04")))
	}
	w.draft.StartTime = t
	w.ok()
	return nil
}

// SetContact records guest contact details.
func (w *Wizard) SetContact(c models.Contact) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(StateCollectingContact); err != nil {
		return err
	}
	c, err := ValidateContact(c)
	if err != nil {
		return w.fail(err)
	}
	w.draft.Contact = &c
	w.ok()
	return nil
}

// SetNotes sets free-form notes at any step before submission.
func (w *Wizard) SetNotes(notes string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.state == StateSubmitting || w.state == StateSucceeded {
		return ErrInvalidState
	}
	w.touch()
	w.draft.Notes = notes
	return nil
}

// Next checks the current step's guard and advances.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.touch()

	cat, err := w.catalog()
	if err != nil {
		return w.fail(err)
	}

	switch w.state {
	case StateChoosingAuthPath:
		return w.fail(ErrAuthPathRequired)

	case StateSelectingServices:
		if err := w.checkServices(cat); err != nil {
			return w.fail(err)
		}
		if len(cat.Qualified(w.draft.ServiceIDs)) == 0 {
			return w.fail(ErrNoEligibleStaff)
		}
		w.ok()
		return w.transition(StateSelectingStaff)

	case StateSelectingStaff:
		if err := w.checkStaff(cat); err != nil {
			return w.fail(err)
		}
		w.ok()
		if err := w.transition(StateSelectingDate); err != nil {
			return err
		}
		month := w.deps.Now().In(w.deps.Settings.Location)
		if w.draft.Date != "" {
			if d, err := models.ParseDate(w.draft.Date, w.deps.Settings.Location); err == nil {
				month = d
			}
		}
		w.showMonth(ctx, cat, month)
		return nil

	case StateSelectingDate:
		if w.draft.Date == "" {
			return w.fail(ErrNoDate)
		}
		if len(w.candidates) == 0 {
			return w.fail(ErrNoSlots)
		}
		w.ok()
		return w.transition(StateSelectingTime)

	case StateSelectingTime:
		if !w.draft.HasTime() {
			return w.fail(ErrNoTime)
		}
		if !w.offers(w.draft.StartTime) {
			return w.fail(ErrSlotNotOffered)
		}
		w.ok()
		if w.guest {
			return w.transition(StateCollectingContact)
		}
		return w.transition(StateConfirming)

	case StateCollectingContact:
		if w.draft.Contact == nil {
			return w.fail(ErrContactRequired)
		}
		w.ok()
		return w.transition(StateConfirming)

	default:
		return ErrInvalidState
	}
}

// Back returns to the previous step, keeping every selection made so far.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.touch()

	var to State
	switch w.state {
	case StateSelectingServices:
		if w.entry != EntryGuest {
			return ErrInvalidState
		}
		to = StateChoosingAuthPath
		w.authChosen = false
	case StateSelectingStaff:
		to = StateSelectingServices
	case StateSelectingDate:
		to = StateSelectingStaff
		w.probe.Stop()
	case StateSelectingTime:
		to = StateSelectingDate
	case StateCollectingContact:
		to = StateSelectingTime
	case StateConfirming:
		if w.guest {
			to = StateCollectingContact
		} else {
			to = StateSelectingTime
		}
	case StateFailed:
		if len(w.partial) > 0 {
			return w.fail(ErrPartialBooking)
		}
		to = StateConfirming
	default:
		return ErrInvalidState
	}
	return w.transition(to)
}

// Submit sends the draft with the configured strategy. A conflict clears the
// time, returns to time selection and refreshes candidates. Any other failure
// leaves the draft intact in state failed, from which Submit may be retried.
// After a partial chained failure the created appointments are kept and a
// retry books only the remaining services.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.state != StateConfirming && w.state != StateFailed {
		return ErrInvalidState
	}
	w.touch()

	cat, err := w.catalog()
	if err != nil {
		return w.fail(err)
	}
	plan, err := w.plan(cat)
	if err != nil {
		return w.fail(err)
	}

	if err := w.transition(StateSubmitting); err != nil {
		return err
	}

	total := len(plan.Services)
	booked := len(w.partial)
	if booked > 0 {
		plan.Start = plan.Start.Add(models.TotalDuration(plan.Services[:booked]))
		plan.Services = plan.Services[booked:]
	}

	strategy := string(w.deps.Submitter.Strategy())
	created, err := w.deps.Submitter.Submit(ctx, plan)
	if err == nil {
		w.result = append(w.partial, created...)
		w.partial = nil
		w.lastErr = nil
		created = w.result
		metrics.IncSubmission(strategy, "succeeded")
		w.logger.Info().Int("appointments", len(created)).Str("strategy", strategy).Msg("booking submitted")
		w.publish(events.TypeBookingSucceeded, created)
		w.probe.Stop()
		return w.transition(StateSucceeded)
	}

	cause := err
	var pe *PartialError
	if errors.As(err, &pe) {
		w.partial = append(w.partial, pe.Created...)
		cause = pe.Err
	}
	if len(w.partial) > 0 {
		perr := &PartialError{Created: w.partial, FailedIndex: len(w.partial), Total: total, Err: cause}
		w.lastErr = failureOf(perr)
		metrics.IncSubmission(strategy, "partial")
		w.logger.Warn().Err(perr).Strs("created", perr.CreatedIDs()).Msg("chained submission partially failed")
		w.publish(events.TypeBookingPartial, w.lastErr)
		if terr := w.transition(StateFailed); terr != nil {
			return terr
		}
		return perr
	}

	w.lastErr = failureOf(err)
	if backend.IsConflict(err) {
		metrics.IncSubmission(strategy, "conflict")
		metrics.IncConflictRecovered()
		w.logger.Info().Err(err).Msg("slot taken, returning to time selection")
		w.publish(events.TypeBookingConflict, w.lastErr)

		w.draft.StartTime = time.Time{}
		if terr := w.transition(StateSelectingTime); terr != nil {
			return terr
		}
		if rerr := w.reloadSlots(ctx); rerr != nil {
			w.validation[StateSelectingTime] = rerr.Error()
		}
		return err
	}

	metrics.IncSubmission(strategy, "failed")
	w.logger.Error().Err(err).Msg("booking submission failed")
	w.publish(events.TypeBookingFailed, w.lastErr)
	if terr := w.transition(StateFailed); terr != nil {
		return terr
	}
	return err
}

// Result returns the appointments created by a successful submission.
func (w *Wizard) Result() []models.Appointment {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.Appointment(nil), w.result...)
}

// Close discards the draft and stops any running scan.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.probe.Stop()
	w.draft = models.Draft{}
	w.candidates = nil
}

// enter checks the session is usable in state s. Lock must be held.
func (w *Wizard) enter(s State) error {
	if w.closed {
		return ErrClosed
	}
	if w.state != s {
		return fmt.Errorf("%w: in %s, need %s", ErrInvalidState, w.state, s)
	}
	w.touch()
	return nil
}

func (w *Wizard) touch() {
	w.updatedAt = w.deps.Now()
}

func (w *Wizard) fail(err error) error {
	w.validation[w.state] = err.Error()
	return err
}

func (w *Wizard) ok() {
	delete(w.validation, w.state)
}

func (w *Wizard) transition(to State) error {
	from := w.state
	if !w.fsm.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, from, to)
	}
	w.state = to
	w.logger.Debug().Str("from", string(from)).Str("to", string(to)).Msg("step changed")
	w.publish(events.TypeStepChanged, map[string]State{"from": from, "to": to})
	return nil
}

func (w *Wizard) publish(eventType string, payload any) {
	if w.deps.Events == nil {
		return
	}
	if err := w.deps.Events.PublishJSON(eventType, w.id, payload); err != nil {
		w.logger.Warn().Err(err).Str("type", eventType).Msg("publish event")
	}
}

func (w *Wizard) catalog() (*models.Catalog, error) {
	if w.deps.Catalog == nil {
		return nil, ErrNoCatalog
	}
	cat := w.deps.Catalog.Catalog()
	if cat == nil {
		return nil, ErrNoCatalog
	}
	return cat, nil
}

// applyServices validates the first slot, stores the list and, if it
// changed, clears staff, date and time before re-running auto-assist.
func (w *Wizard) applyServices(ids []string) error {
	cat, err := w.catalog()
	if err != nil {
		return w.fail(err)
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := cat.Service(id); !ok {
			return w.fail(fmt.Errorf("%w: %q", ErrUnknownService, id))
		}
	}
	if len(ids) > 0 && ids[0] != "" {
		if first, _ := cat.Service(ids[0]); first.IsAddOn() {
			return w.fail(ErrAddOnFirst)
		}
	}

	if equal(ids, w.draft.ServiceIDs) {
		w.ok()
		return nil
	}
	w.draft.ServiceIDs = ids
	w.clearFromStaff()

	if len(ids) > 0 && len(filled(ids)) == len(ids) {
		if q := cat.Qualified(ids); len(q) == 1 {
			w.draft.StaffID = q[0].ID
		}
	}
	w.ok()
	return nil
}

func (w *Wizard) checkServices(cat *models.Catalog) error {
	ids := w.draft.ServiceIDs
	if len(ids) == 0 {
		return ErrNoServices
	}
	var total time.Duration
	for i, id := range ids {
		if id == "" {
			return ErrUnfilledService
		}
		svc, ok := cat.Service(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownService, id)
		}
		if i == 0 && svc.IsAddOn() {
			return ErrAddOnFirst
		}
		total += svc.Duration()
	}
	if total <= 0 {
		return ErrZeroDuration
	}
	return nil
}

func (w *Wizard) checkStaff(cat *models.Catalog) error {
	if w.draft.StaffID == "" {
		return ErrNoStaffSelected
	}
	staff, ok := cat.StaffMember(w.draft.StaffID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStaff, w.draft.StaffID)
	}
	if !staff.CanPerform(w.draft.ServiceIDs...) {
		return ErrStaffNotCapable
	}
	return nil
}

func (w *Wizard) clearFromStaff() {
	w.draft.StaffID = ""
	w.clearFromDate()
}

func (w *Wizard) clearFromDate() {
	w.draft.Date = ""
	w.draft.StartTime = time.Time{}
	w.candidates = nil
	w.probe.Stop()
}

func (w *Wizard) lines(cat *models.Catalog) ([]slots.Line, error) {
	out := make([]slots.Line, 0, len(w.draft.ServiceIDs))
	for _, id := range w.draft.ServiceIDs {
		svc, ok := cat.Service(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownService, id)
		}
		out = append(out, slots.Line{ServiceID: svc.ID, DurationMinutes: svc.DurationMinutes})
	}
	if slots.TotalDuration(out) <= 0 {
		return nil, ErrZeroDuration
	}
	return out, nil
}

func (w *Wizard) showMonth(ctx context.Context, cat *models.Catalog, month time.Time) {
	loc := w.deps.Settings.Location
	month = time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	w.month = month

	caps, err := w.deps.Backend.GetMonthCapacity(ctx, cat.Salon.ID, month)
	if err != nil {
		w.logger.Warn().Err(err).Str("month", month.Format("2006-01")).Msg("load month capacity")
	}
	w.capacity = make(map[string]models.DayCapacity, len(caps))
	for _, c := range caps {
		w.capacity[c.Date] = c
	}

	lines, err := w.lines(cat)
	if err != nil {
		w.validation[w.state] = err.Error()
		return
	}
	var staff *models.Staff
	if s, ok := cat.StaffMember(w.draft.StaffID); ok {
		staff = &s
	}

	w.probe.Start(context.WithoutCancel(ctx), availability.ScanRequest{
		Staff:      staff,
		Lines:      lines,
		Month:      month,
		SalonHours: cat.Salon.Hours,
		Exceptions: cat.Salon.Exceptions,
		Capacity:   w.capacity,
	})
}

// querySlots asks the booking service for start times. It touches no wizard
// state so the probe may call it concurrently.
func (w *Wizard) querySlots(ctx context.Context, date time.Time, staffID string, lines []slots.Line) ([]time.Time, error) {
	cat, err := w.catalog()
	if err != nil {
		return nil, err
	}
	req := make([]backend.SlotLine, len(lines))
	for i, l := range lines {
		req[i] = backend.SlotLine{ServiceID: l.ServiceID, StaffID: staffID, DurationMinutes: l.DurationMinutes}
	}
	return w.deps.Backend.GetSlots(ctx, cat.Salon.ID, date, req)
}

func (w *Wizard) reloadSlots(ctx context.Context) error {
	cat, err := w.catalog()
	if err != nil {
		return err
	}
	date, err := models.ParseDate(w.draft.Date, w.deps.Settings.Location)
	if err != nil {
		return ErrNoDate
	}
	lines, err := w.lines(cat)
	if err != nil {
		return err
	}

	candidates, err := w.querySlots(ctx, date, w.draft.StaffID, lines)
	if err != nil {
		w.candidates = nil
		return fmt.Errorf("load slots: %w", err)
	}
	w.candidates = candidates
	if w.draft.HasTime() && !w.offers(w.draft.StartTime) {
		w.draft.StartTime = time.Time{}
	}
	return nil
}

func (w *Wizard) offers(t time.Time) bool {
	for _, c := range w.candidates {
		if c.Equal(t) {
			return true
		}
	}
	return false
}

func (w *Wizard) plan(cat *models.Catalog) (Plan, error) {
	if err := w.checkServices(cat); err != nil {
		return Plan{}, err
	}
	if err := w.checkStaff(cat); err != nil {
		return Plan{}, err
	}
	if !w.draft.HasTime() {
		return Plan{}, ErrNoTime
	}
	if w.guest && w.draft.Contact == nil {
		return Plan{}, ErrContactRequired
	}

	services := make([]models.Service, len(w.draft.ServiceIDs))
	for i, id := range w.draft.ServiceIDs {
		services[i], _ = cat.Service(id)
	}
	return Plan{
		SalonID:  cat.Salon.ID,
		StaffID:  w.draft.StaffID,
		Services: services,
		Start:    w.draft.StartTime,
		Notes:    w.draft.Notes,
		ClientID: w.draft.ClientID,
		Contact:  w.draft.Contact,
	}, nil
}

func failureOf(err error) *SubmitFailure {
	f := &SubmitFailure{Kind: backend.KindOf(err), Message: err.Error()}
	var pe *PartialError
	if errors.As(err, &pe) {
		f.CreatedIDs = pe.CreatedIDs()
		f.FailedIndex = pe.FailedIndex
		f.Total = pe.Total
	}
	return f
}

func filled(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
