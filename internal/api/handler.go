package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"salonbook/internal/backend"
	"salonbook/internal/booking"
	"salonbook/internal/models"
)

// Handler exposes booking sessions over HTTP.
type Handler struct {
	sessions *booking.SessionStore
	backend  backend.Service
	catalog  booking.CatalogSource
	loc      *time.Location
	logger   zerolog.Logger
}

// NewHandler creates a new booking handler.
func NewHandler(sessions *booking.SessionStore, svc backend.Service, catalog booking.CatalogSource, loc *time.Location, logger zerolog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		sessions: sessions,
		backend:  svc,
		catalog:  catalog,
		loc:      loc,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

type createSessionRequest struct {
	Entry    booking.Entry `json:"entry"`
	ClientID string        `json:"client_id"`
}

type authRequest struct {
	Path     booking.AuthPath `json:"path"`
	ClientID string           `json:"client_id"`
}

type servicesRequest struct {
	ServiceIDs []string `json:"service_ids"`
}

type serviceRequest struct {
	ServiceID string `json:"service_id"`
}

type staffRequest struct {
	StaffID string `json:"staff_id"`
}

type dateRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

type timeRequest struct {
	StartTime time.Time `json:"start_time"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type errorResponse struct {
	Error string        `json:"error"`
	View  *booking.View `json:"view,omitempty"`
}

// CreateSession handles POST /sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Entry == "" {
		req.Entry = booking.EntryGuest
	}
	if req.Entry == booking.EntryClient && req.ClientID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: booking.ErrClientIDRequired.Error()})
		return
	}

	wz := h.sessions.Create(req.Entry, req.ClientID)
	h.logger.Info().Str("session", wz.ID()).Str("entry", string(req.Entry)).Msg("session created")
	writeJSON(w, http.StatusCreated, wz.View())
}

// GetSession handles GET /sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wz.View())
}

// DeleteSession handles DELETE /sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// ChooseAuth handles POST /sessions/{id}/auth.
func (h *Handler) ChooseAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	h.mutate(w, r, &req, func(wz *booking.Wizard) error {
		return wz.ChooseAuthPath(req.Path, req.ClientID)
	})
}

// SetServices handles PUT /sessions/{id}/services.
func (h *Handler) SetServices(w http.ResponseWriter, r *http.Request) {
	var req servicesRequest
	h.mutate(w, r, &req, func(wz *booking.Wizard) error {
		return wz.SetServices(req.ServiceIDs)
	})
}

// AddServiceSlot handles POST /sessions/{id}/services.
func (h *Handler) AddServiceSlot(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(wz *booking.Wizard) error {
		return wz.AddServiceSlot()
	})
}

// SelectService handles PUT /sessions/{id}/services/{index}.
func (h *Handler) SelectService(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid service index"})
		return
	}
	var req serviceRequest
	h.mutate(w, r, &req, func(wz *booking.Wizard) error {
		return wz.SelectService(index, req.ServiceID)
	})
}

// RemoveServiceSlot handles DELETE /sessions/{id}/services/{index}.
func (h *Handler) RemoveServiceSlot(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid service index"})
		return
	}
	h.mutate(w, r, nil, func(wz *booking.Wizard) error {
		return wz.RemoveServiceSlot(index)
	})
}

// SelectStaff handles PUT /sessions/{id}/staff.
func (h *Handler) SelectStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	h.mutate(w, r, &req, func(wz *booking.Wizard) error {
		return wz.SelectStaff(req.StaffID)
	})
}

// ShowMonth handles GET /sessions/{id}/month?month=YYYY-MM.
func (h *Handler) ShowMonth(w http.ResponseWriter, r *http.Request) {
	month, err := h.parseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.mutate(w, r, nil, func(wz *booking.Wizard) error {
		_, err := wz.ShowMonth(r.Context(), month)
		return err
	})
}

// Availability handles GET /sessions/{id}/availability.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wz.Availability())
}

// SelectDate handles PUT /sessions/{id}/date.
func (h *Handler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	h.mutate(w, r, &req, func(wz *booking.Wizard) error {
		date, err := models.ParseDate(req.Date, h.loc)
		if err != nil {
			return err
		}
		return wz.SelectDate(r.Context(), date)
	})
}

// RefreshSlots handles POST /sessions/{id}/slots/refresh.
func (h *Handler) RefreshSlots(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(wz *booking.Wizard) error {
		return wz.RefreshSlots(r.Context())
	})
}

// SelectTime handles PUT /sessions/{id}/time.
func (h *Handler) SelectTime(w http.ResponseWriter, r *http.Request) {
	var req timeRequest
	h.mutate(w, r, &req, func(wz *booking.Wizard) error {
		return wz.SelectTime(req.StartTime)
	})
}

// SetContact handles PUT /sessions/{id}/contact.
func (h *Handler) SetContact(w http.ResponseWriter, r *http.Request) {
	var req models.Contact
	h.mutate(w, r, &req, func(wz *booking.Wizard) error {
		return wz.SetContact(req)
	})
}

// SetNotes handles PUT /sessions/{id}/notes.
func (h *Handler) SetNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	h.mutate(w, r, &req, func(wz *booking.Wizard) error {
		return wz.SetNotes(req.Notes)
	})
}

// Next handles POST /sessions/{id}/next.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(wz *booking.Wizard) error {
		return wz.Next(r.Context())
	})
}

// Back handles POST /sessions/{id}/back.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(wz *booking.Wizard) error {
		return wz.Back()
	})
}

// Submit handles POST /sessions/{id}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(wz *booking.Wizard) error {
		return wz.Submit(r.Context())
	})
}

// MonthCapacity handles GET /capacity?month=YYYY-MM.
func (h *Handler) MonthCapacity(w http.ResponseWriter, r *http.Request) {
	month, err := h.parseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	cat := h.catalog.Catalog()
	if cat == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: booking.ErrNoCatalog.Error()})
		return
	}

	days, err := h.backend.GetMonthCapacity(r.Context(), cat.Salon.ID, month)
	if err != nil {
		h.logger.Error().Err(err).Str("month", month.Format("2006-01")).Msg("failed to load capacity")
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*booking.Wizard, bool) {
	wz, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return nil, false
	}
	return wz, true
}

// mutate decodes req (when non-nil), applies fn and responds with the
// session view, including it in error responses too.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, req any, fn func(*booking.Wizard) error) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	if req != nil {
		if err := decode(r, req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	if err := fn(wz); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("session", wz.ID()).Msg("request failed")
		}
		view := wz.View()
		writeJSON(w, status, errorResponse{Error: err.Error(), View: &view})
		return
	}
	writeJSON(w, http.StatusOK, wz.View())
}

func (h *Handler) parseMonth(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().In(h.loc)
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.loc), nil
	}
	month, err := time.ParseInLocation("2006-01", s, h.loc)
	if err != nil {
		return time.Time{}, errors.New("invalid month, expected YYYY-MM")
	}
	return month, nil
}

func statusFor(err error) int {
	var be *backend.Error
	switch {
	case errors.Is(err, booking.ErrClosed):
		return http.StatusGone
	case errors.Is(err, booking.ErrInvalidState), errors.Is(err, booking.ErrPartialBooking):
		return http.StatusConflict
	case errors.Is(err, booking.ErrNoCatalog):
		return http.StatusServiceUnavailable
	case errors.As(err, &be):
		switch be.Kind {
		case backend.KindConflict:
			return http.StatusConflict
		case backend.KindValidation:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusBadGateway
		}
	default:
		return http.StatusUnprocessableEntity
	}
}

func decode(r *http.Request, out any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
