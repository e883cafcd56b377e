package models

// Salon is the business whose hours and closures scope all bookings.
type Salon struct {
	ID       string      `yaml:"id" json:"id"`
	Name     string      `yaml:"name" json:"name"`
	Timezone string      `yaml:"timezone" json:"timezone"`
	Hours    WeeklyHours `yaml:"hours" json:"hours"`
	Exceptions `yaml:",inline" json:"exceptions"`
}
