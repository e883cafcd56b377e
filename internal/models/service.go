package models

import "time"

// Service is a bookable salon service.
type Service struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	DurationMinutes int      `yaml:"duration_minutes" json:"duration_minutes"`
	Price           float64  `yaml:"price" json:"price"`
	DiscountPrice   *float64 `yaml:"discount_price,omitempty" json:"discount_price,omitempty"`
	CapableStaffIDs []string `yaml:"capable_staff_ids,omitempty" json:"capable_staff_ids,omitempty"`
}

// IsAddOn reports whether the service takes no time of its own.
func (s Service) IsAddOn() bool {
	return s.DurationMinutes == 0
}

func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// EffectivePrice returns the discount price when one is set.
func (s Service) EffectivePrice() float64 {
	if s.DiscountPrice != nil {
		return *s.DiscountPrice
	}
	return s.Price
}

// Staff is a salon employee with personal weekly hours.
type Staff struct {
	ID                string      `yaml:"id" json:"id"`
	Name              string      `yaml:"name" json:"name"`
	Hours             WeeklyHours `yaml:"hours" json:"hours"`
	CapableServiceIDs []string    `yaml:"capable_service_ids" json:"capable_service_ids"`
}

// CanPerform reports whether every given service is in the staff's capable set.
func (s Staff) CanPerform(serviceIDs ...string) bool {
	capable := make(map[string]struct{}, len(s.CapableServiceIDs))
	for _, id := range s.CapableServiceIDs {
		capable[id] = struct{}{}
	}
	for _, id := range serviceIDs {
		if _, ok := capable[id]; !ok {
			return false
		}
	}
	return true
}

// WorksOn reports the staff's weekly working flag for a weekday.
func (s Staff) WorksOn(w time.Weekday) bool {
	d, ok := s.Hours.Day(w)
	return ok && d.Open
}

// TotalDuration sums the durations of services.
func TotalDuration(services []Service) time.Duration {
	var total time.Duration
	for _, s := range services {
		total += s.Duration()
	}
	return total
}
