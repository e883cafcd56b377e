package config

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"salonbook/internal/models"
)

// SeedAppointment is an existing booking preloaded into the memory backend.
type SeedAppointment struct {
	ID        string `yaml:"id"`
	StaffID   string `yaml:"staff_id"`
	ServiceID string `yaml:"service_id"`
	Start     string `yaml:"start"` // "2025-03-10 10:30"
	End       string `yaml:"end"`
	Status    string `yaml:"status"`
}

// Catalog is the root configuration for salon.yaml.
type Catalog struct {
	models.Catalog `yaml:",inline"`
	Appointments   []SeedAppointment `yaml:"appointments"`
}

const seedLayout = "2006-01-02 15:04"

// LoadCatalog loads and validates the salon catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		path = "configs/salon.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read salon config: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse salon config: %w", err)
	}

	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("validate salon config: %w", err)
	}

	cat.applyDefaults()

	return &cat, nil
}

// Validate checks the catalog for errors.
func (c *Catalog) Validate() error {
	if c.Salon.ID == "" {
		return fmt.Errorf("salon.id is required")
	}
	if c.Salon.Timezone != "" {
		if _, err := time.LoadLocation(c.Salon.Timezone); err != nil {
			return fmt.Errorf("salon.timezone: %w", err)
		}
	}
	if err := validateHours(c.Salon.Hours, "salon.hours"); err != nil {
		return err
	}

	for i, v := range c.Salon.Vacations {
		if err := validateRange(v.StartDate, v.EndDate, fmt.Sprintf("vacations[%d]", i)); err != nil {
			return err
		}
	}
	for i, b := range c.Salon.Breaks {
		prefix := fmt.Sprintf("breaks[%d]", i)
		switch b.Type {
		case models.BreakSpecificDate:
			if _, err := time.Parse(models.DateLayout, b.Date); err != nil {
				return fmt.Errorf("%s: invalid date '%s', expected YYYY-MM-DD", prefix, b.Date)
			}
		case models.BreakDateRange:
			if err := validateRange(b.StartDate, b.EndDate, prefix); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s: unknown type '%s'", prefix, b.Type)
		}
	}

	if len(c.Services) == 0 {
		return fmt.Errorf("no services defined")
	}
	services := make(map[string]bool)
	for i, s := range c.Services {
		if s.ID == "" {
			return fmt.Errorf("service[%d]: id is required", i)
		}
		if services[s.ID] {
			return fmt.Errorf("service[%d]: duplicate id '%s'", i, s.ID)
		}
		services[s.ID] = true
		if s.DurationMinutes < 0 {
			return fmt.Errorf("service[%d]: duration cannot be negative", i)
		}
		if s.Price < 0 {
			return fmt.Errorf("service[%d]: price cannot be negative", i)
		}
	}

	staff := make(map[string]bool)
	for i, s := range c.Staff {
		if s.ID == "" {
			return fmt.Errorf("staff[%d]: id is required", i)
		}
		if staff[s.ID] {
			return fmt.Errorf("staff[%d]: duplicate id '%s'", i, s.ID)
		}
		staff[s.ID] = true
		if err := validateHours(s.Hours, fmt.Sprintf("staff[%d].hours", i)); err != nil {
			return err
		}
		for _, id := range s.CapableServiceIDs {
			if !services[id] {
				return fmt.Errorf("staff[%d]: unknown service '%s'", i, id)
			}
		}
	}
	for i, s := range c.Services {
		for _, id := range s.CapableStaffIDs {
			if !staff[id] {
				return fmt.Errorf("service[%d]: unknown staff '%s'", i, id)
			}
		}
	}

	for i, a := range c.Appointments {
		prefix := fmt.Sprintf("appointments[%d]", i)
		if !staff[a.StaffID] {
			return fmt.Errorf("%s: unknown staff '%s'", prefix, a.StaffID)
		}
		start, err := time.Parse(seedLayout, a.Start)
		if err != nil {
			return fmt.Errorf("%s.start: invalid format '%s', expected YYYY-MM-DD HH:MM", prefix, a.Start)
		}
		end, err := time.Parse(seedLayout, a.End)
		if err != nil {
			return fmt.Errorf("%s.end: invalid format '%s', expected YYYY-MM-DD HH:MM", prefix, a.End)
		}
		if end.Before(start) {
			return fmt.Errorf("%s: end must not be before start", prefix)
		}
	}

	return nil
}

func validateHours(hours models.WeeklyHours, prefix string) error {
	for day, h := range hours {
		if !validWeekday(day) {
			return fmt.Errorf("%s: unknown weekday '%s'", prefix, day)
		}
		if !h.Open {
			continue
		}
		start, err := models.ParseClock(h.Start)
		if err != nil {
			return fmt.Errorf("%s.%s.start: invalid format '%s', expected HH:MM", prefix, day, h.Start)
		}
		end, err := models.ParseClock(h.End)
		if err != nil {
			return fmt.Errorf("%s.%s.end: invalid format '%s', expected HH:MM", prefix, day, h.End)
		}
		if end <= start {
			return fmt.Errorf("%s.%s: end must be after start", prefix, day)
		}
	}
	return nil
}

func validateRange(from, to, prefix string) error {
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return fmt.Errorf("%s.start_date: invalid format '%s', expected YYYY-MM-DD", prefix, from)
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return fmt.Errorf("%s.end_date: invalid format '%s', expected YYYY-MM-DD", prefix, to)
	}
	if end.Before(start) {
		return fmt.Errorf("%s: end_date must not be before start_date", prefix)
	}
	return nil
}

func validWeekday(day string) bool {
	for w := time.Sunday; w <= time.Saturday; w++ {
		if models.WeekdayKey(w) == day {
			return true
		}
	}
	return false
}

// applyDefaults merges service-side staff lists into each staff member's
// capable set so that either side of the relation may be configured.
func (c *Catalog) applyDefaults() {
	for _, svc := range c.Services {
		for _, staffID := range svc.CapableStaffIDs {
			for i := range c.Staff {
				if c.Staff[i].ID == staffID && !c.Staff[i].CanPerform(svc.ID) {
					c.Staff[i].CapableServiceIDs = append(c.Staff[i].CapableServiceIDs, svc.ID)
				}
			}
		}
	}
}

// Location returns the salon timezone, or fallback when none is set.
func (c *Catalog) Location(fallback *time.Location) *time.Location {
	if c.Salon.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(c.Salon.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// Seed converts the seed appointments to models in loc.
func (c *Catalog) Seed(loc *time.Location) []models.Appointment {
	out := make([]models.Appointment, 0, len(c.Appointments))
	for i, a := range c.Appointments {
		start, err := time.ParseInLocation(seedLayout, a.Start, loc)
		if err != nil {
			continue
		}
		end, err := time.ParseInLocation(seedLayout, a.End, loc)
		if err != nil {
			continue
		}
		status := models.AppointmentStatus(a.Status)
		if status == "" {
			status = models.StatusConfirmed
		}
		id := a.ID
		if id == "" {
			id = fmt.Sprintf("seed-%d", i+1)
		}
		out = append(out, models.Appointment{
			ID:        id,
			StaffID:   a.StaffID,
			ServiceID: a.ServiceID,
			StartTime: start,
			EndTime:   end,
			Status:    status,
		})
	}
	return out
}

// String returns a summary of the catalog.
func (c *Catalog) String() string {
	return fmt.Sprintf("Catalog %s: %d services, %d staff, %d vacations, %d breaks",
		c.Salon.ID, len(c.Services), len(c.Staff), len(c.Salon.Vacations), len(c.Salon.Breaks))
}

// CatalogHolder serves the latest loaded catalog to concurrent readers.
type CatalogHolder struct {
	current atomic.Pointer[models.Catalog]
}

// Catalog returns the current catalog, or nil before the first Store.
func (h *CatalogHolder) Catalog() *models.Catalog {
	return h.current.Load()
}

func (h *CatalogHolder) Store(cat *models.Catalog) {
	h.current.Store(cat)
}
