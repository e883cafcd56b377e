package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter wires the booking routes.
func NewRouter(h *Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/capacity", h.MonthCapacity)

	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{id}", func(s chi.Router) {
		s.Get("/", h.GetSession)
		s.Delete("/", h.DeleteSession)

		s.Post("/auth", h.ChooseAuth)
		s.Put("/services", h.SetServices)
		s.Post("/services", h.AddServiceSlot)
		s.Put("/services/{index}", h.SelectService)
		s.Delete("/services/{index}", h.RemoveServiceSlot)
		s.Put("/staff", h.SelectStaff)
		s.Get("/month", h.ShowMonth)
		s.Get("/availability", h.Availability)
		s.Put("/date", h.SelectDate)
		s.Post("/slots/refresh", h.RefreshSlots)
		s.Put("/time", h.SelectTime)
		s.Put("/contact", h.SetContact)
		s.Put("/notes", h.SetNotes)

		s.Post("/next", h.Next)
		s.Post("/back", h.Back)
		s.Post("/submit", h.Submit)
	})

	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
