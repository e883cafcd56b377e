package models

// Vacation closes the salon for an inclusive date range.
type Vacation struct {
	Title     string `yaml:"title" json:"title"`
	StartDate string `yaml:"start_date" json:"start_date"` // YYYY-MM-DD
	EndDate   string `yaml:"end_date" json:"end_date"`
	Active    bool   `yaml:"active" json:"active"`
}

// Covers reports whether the vacation is active on the date (YYYY-MM-DD).
func (v Vacation) Covers(date string) bool {
	return v.Active && v.StartDate <= date && date <= v.EndDate
}

// BreakType distinguishes single-day breaks from ranges.
type BreakType string

const (
	BreakSpecificDate BreakType = "specific_date"
	BreakDateRange    BreakType = "date_range"
)

// Break closes the salon for one date or an inclusive date range.
type Break struct {
	Title     string    `yaml:"title" json:"title"`
	Type      BreakType `yaml:"type" json:"type"`
	Date      string    `yaml:"date,omitempty" json:"date,omitempty"`
	StartDate string    `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   string    `yaml:"end_date,omitempty" json:"end_date,omitempty"`
	Active    bool      `yaml:"active" json:"active"`
}

// Covers reports whether the break is active on the date (YYYY-MM-DD).
func (b Break) Covers(date string) bool {
	if !b.Active {
		return false
	}
	switch b.Type {
	case BreakSpecificDate:
		return b.Date == date
	case BreakDateRange:
		return b.StartDate <= date && date <= b.EndDate
	default:
		return false
	}
}

// Exceptions groups the salon-wide closures.
type Exceptions struct {
	Vacations []Vacation `yaml:"vacations" json:"vacations"`
	Breaks    []Break    `yaml:"breaks" json:"breaks"`
}
