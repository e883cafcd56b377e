package models

// Catalog is the salon's bookable offering: hours, closures, services and staff.
type Catalog struct {
	Salon    Salon     `yaml:"salon" json:"salon"`
	Services []Service `yaml:"services" json:"services"`
	Staff    []Staff   `yaml:"staff" json:"staff"`
}

// Service looks up a service by id.
func (c *Catalog) Service(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// StaffMember looks up a staff member by id.
func (c *Catalog) StaffMember(id string) (Staff, bool) {
	for _, s := range c.Staff {
		if s.ID == id {
			return s, true
		}
	}
	return Staff{}, false
}

// Qualified returns the staff capable of every given service, in catalog order.
func (c *Catalog) Qualified(serviceIDs []string) []Staff {
	var out []Staff
	for _, s := range c.Staff {
		if s.CanPerform(serviceIDs...) {
			out = append(out, s)
		}
	}
	return out
}
