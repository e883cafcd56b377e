package booking

import (
	"context"
	"fmt"
	"time"

	"salonbook/internal/backend"
	"salonbook/internal/models"
)

// Strategy selects how a multi-service booking is sent to the booking service.
type Strategy string

const (
	// StrategyCombined sends one request with the first service as primary and
	// the rest as additional services.
	StrategyCombined Strategy = "combined"
	// StrategyChained sends one request per service, back to back.
	StrategyChained Strategy = "chained"
)

// Plan is a fully validated draft ready for submission.
type Plan struct {
	SalonID  string
	StaffID  string
	Services []models.Service
	Start    time.Time
	Notes    string
	ClientID string
	Contact  *models.Contact
}

// End returns the end of the last service.
func (p Plan) End() time.Time {
	return p.Start.Add(models.TotalDuration(p.Services))
}

// Submitter creates the appointments of a plan.
type Submitter interface {
	Strategy() Strategy
	Submit(ctx context.Context, plan Plan) ([]models.Appointment, error)
}

// NewSubmitter returns the submitter for a strategy.
func NewSubmitter(strategy Strategy, svc backend.Service) (Submitter, error) {
	switch strategy {
	case StrategyCombined, "":
		return &Combined{backend: svc}, nil
	case StrategyChained:
		return &Chained{backend: svc}, nil
	default:
		return nil, fmt.Errorf("unknown submission strategy %q", strategy)
	}
}

// Combined submits one request; the booking service computes the end time.
type Combined struct {
	backend backend.Service
}

func (c *Combined) Strategy() Strategy { return StrategyCombined }

func (c *Combined) Submit(ctx context.Context, plan Plan) ([]models.Appointment, error) {
	if len(plan.Services) == 0 {
		return nil, ErrNoServices
	}

	req := baseRequest(plan)
	req.ServiceID = plan.Services[0].ID
	for _, s := range plan.Services[1:] {
		req.AdditionalServiceIDs = append(req.AdditionalServiceIDs, s.ID)
	}
	req.StartTime = plan.Start

	appt, err := c.backend.CreateAppointment(ctx, req)
	if err != nil {
		return nil, err
	}
	return []models.Appointment{*appt}, nil
}

// Chained submits one request per service in the given order, each starting
// where the previous one ends. A failure after the first request returns a
// *PartialError carrying the appointments already created.
type Chained struct {
	backend backend.Service
}

func (c *Chained) Strategy() Strategy { return StrategyChained }

func (c *Chained) Submit(ctx context.Context, plan Plan) ([]models.Appointment, error) {
	if len(plan.Services) == 0 {
		return nil, ErrNoServices
	}

	created := make([]models.Appointment, 0, len(plan.Services))
	start := plan.Start
	for i, s := range plan.Services {
		req := baseRequest(plan)
		req.ServiceID = s.ID
		req.StartTime = start
		req.EndTime = start.Add(s.Duration())

		appt, err := c.backend.CreateAppointment(ctx, req)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			return created, &PartialError{Created: created, FailedIndex: i, Total: len(plan.Services), Err: err}
		}
		created = append(created, *appt)
		start = req.EndTime
	}
	return created, nil
}

func baseRequest(plan Plan) backend.AppointmentRequest {
	return backend.AppointmentRequest{
		SalonID:  plan.SalonID,
		StaffID:  plan.StaffID,
		Notes:    plan.Notes,
		ClientID: plan.ClientID,
		Contact:  plan.Contact,
	}
}
