package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salonbook/internal/backend"
	"salonbook/internal/events"
	"salonbook/internal/models"
)

func testPlan() Plan {
	cat := testCatalog()
	cut, _ := cat.Service("cut")
	color, _ := cat.Service("color")
	gloss, _ := cat.Service("gloss")
	return Plan{
		SalonID:  "s1",
		StaffID:  "anna",
		Services: []models.Service{cut, color, gloss},
		Start:    at(10, 10, 0),
		Notes:    "window seat",
		ClientID: "client-1",
	}
}

func TestNewSubmitter(t *testing.T) {
	m := new(mockBackend)

	s, err := NewSubmitter("", m)
	require.NoError(t, err)
	assert.Equal(t, StrategyCombined, s.Strategy())

	s, err = NewSubmitter(StrategyChained, m)
	require.NoError(t, err)
	assert.Equal(t, StrategyChained, s.Strategy())

	_, err = NewSubmitter("parallel", m)
	assert.Error(t, err)
}

func TestPlan_End(t *testing.T) {
	assert.Equal(t, at(10, 11, 30), testPlan().End())
}

func TestCombined_Submit(t *testing.T) {
	m := new(mockBackend)
	plan := testPlan()

	m.On("CreateAppointment", mock.Anything, mock.MatchedBy(func(req backend.AppointmentRequest) bool {
		return req.ServiceID == "cut" &&
			assert.ObjectsAreEqual([]string{"color", "gloss"}, req.AdditionalServiceIDs) &&
			req.StartTime.Equal(plan.Start) &&
			req.EndTime.IsZero() &&
			req.Notes == "window seat" &&
			req.ClientID == "client-1"
	})).Return(&models.Appointment{ID: "a1", StartTime: plan.Start, EndTime: plan.End()}, nil).Once()

	created, err := mustSubmitter(t, StrategyCombined, m).Submit(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "a1", created[0].ID)
	m.AssertExpectations(t)
}

func TestChained_SubmitBackToBack(t *testing.T) {
	m := new(mockBackend)
	plan := testPlan()

	var reqs []backend.AppointmentRequest
	m.On("CreateAppointment", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		reqs = append(reqs, args.Get(1).(backend.AppointmentRequest))
	}).Return(&models.Appointment{ID: "x"}, nil).Times(3)

	created, err := mustSubmitter(t, StrategyChained, m).Submit(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, created, 3)

	require.Len(t, reqs, 3)
	want := [][2]int{{10*60 + 0, 10*60 + 30}, {10*60 + 30, 11*60 + 30}, {11*60 + 30, 11*60 + 30}}
	for i, r := range reqs {
		assert.Equal(t, plan.Services[i].ID, r.ServiceID)
		assert.Empty(t, r.AdditionalServiceIDs)
		assert.Equal(t, want[i][0], r.StartTime.Hour()*60+r.StartTime.Minute(), "start of %d", i)
		assert.Equal(t, want[i][1], r.EndTime.Hour()*60+r.EndTime.Minute(), "end of %d", i)
	}
	m.AssertExpectations(t)
}

func TestChained_PartialFailure(t *testing.T) {
	m := new(mockBackend)
	plan := testPlan()
	conflict := &backend.Error{Kind: backend.KindConflict, Op: "create_appointment", Message: "slot taken"}

	m.On("CreateAppointment", mock.Anything, mock.MatchedBy(func(r backend.AppointmentRequest) bool { return r.ServiceID == "cut" })).
		Return(&models.Appointment{ID: "a1", ServiceID: "cut"}, nil).Once()
	m.On("CreateAppointment", mock.Anything, mock.MatchedBy(func(r backend.AppointmentRequest) bool { return r.ServiceID == "color" })).
		Return(nil, conflict).Once()

	created, err := mustSubmitter(t, StrategyChained, m).Submit(context.Background(), plan)
	require.Error(t, err)
	assert.Len(t, created, 1)

	var pe *PartialError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.FailedIndex)
	assert.Equal(t, 3, pe.Total)
	assert.Equal(t, []string{"a1"}, pe.CreatedIDs())
	assert.True(t, backend.IsConflict(err))

	m.AssertNumberOfCalls(t, "CreateAppointment", 2)
}

func TestChained_FirstFailureIsNotPartial(t *testing.T) {
	m := new(mockBackend)
	m.On("CreateAppointment", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

	_, err := mustSubmitter(t, StrategyChained, m).Submit(context.Background(), testPlan())
	require.Error(t, err)

	var pe *PartialError
	assert.False(t, errors.As(err, &pe))
	m.AssertNumberOfCalls(t, "CreateAppointment", 1)
}

func TestSubmit_PartialFailureSurfacesCreatedIDs(t *testing.T) {
	f := newFixture(t, StrategyChained)
	w := f.wizard(EntryClient)
	ctx := context.Background()
	toTimeStep(t, w, []string{"cut", "color"}, "anna", at(10, 0, 0))
	require.NoError(t, w.SelectTime(at(10, 10, 0)))
	require.NoError(t, w.Next(ctx))

	// Takes 10:30 so the second request of the chain collides.
	_, err := f.mem.CreateAppointment(ctx, backend.AppointmentRequest{SalonID: "s1", StaffID: "anna", ServiceID: "cut", StartTime: at(10, 10, 30)})
	require.NoError(t, err)

	err = w.Submit(ctx)
	require.Error(t, err)

	v := w.View()
	assert.Equal(t, StateFailed, v.State)
	assert.True(t, v.Draft.HasTime())
	require.NotNil(t, v.Error)
	assert.Equal(t, backend.KindConflict, v.Error.Kind)
	assert.Equal(t, 1, v.Error.FailedIndex)
	assert.Equal(t, 2, v.Error.Total)
	require.Len(t, v.Error.CreatedIDs, 1)
	assert.Contains(t, v.Error.Message, "created 1 of 2")
	assert.Contains(t, f.eventTypes(), events.TypeBookingPartial)
	assert.NotContains(t, f.eventTypes(), events.TypeBookingConflict)

	assert.ErrorIs(t, w.Back(), ErrPartialBooking)
	assert.Equal(t, StateFailed, w.State())
}

func TestSubmit_PartialRetryBooksRemainingServices(t *testing.T) {
	f := newFixture(t, StrategyChained)
	w := f.wizard(EntryClient)
	ctx := context.Background()
	toTimeStep(t, w, []string{"cut", "color"}, "anna", at(10, 0, 0))
	require.NoError(t, w.SelectTime(at(10, 10, 0)))
	require.NoError(t, w.Next(ctx))

	f.be.failServiceOnce("color", &backend.Error{Kind: backend.KindOther, Op: "create_appointment", Message: "timeout"})
	err := w.Submit(ctx)
	var pe *PartialError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, StateFailed, w.State())
	require.Len(t, f.mem.Appointments(), 1)

	require.NoError(t, w.Submit(ctx))
	assert.Equal(t, StateSucceeded, w.State())
	assert.Nil(t, w.View().Error)

	got := w.Result()
	require.Len(t, got, 2)
	assert.Equal(t, "cut", got[0].ServiceID)
	assert.Equal(t, "color", got[1].ServiceID)
	assert.True(t, got[1].StartTime.Equal(at(10, 10, 30)))

	booked := f.mem.Appointments()
	require.Len(t, booked, 2)
	services := []string{booked[0].ServiceID, booked[1].ServiceID}
	assert.ElementsMatch(t, []string{"cut", "color"}, services)
}

func mustSubmitter(t *testing.T, strategy Strategy, svc backend.Service) Submitter {
	t.Helper()
	s, err := NewSubmitter(strategy, svc)
	require.NoError(t, err)
	return s
}
