package models

// CapacityStatus bands a day's occupancy.
type CapacityStatus string

const (
	CapacityFull      CapacityStatus = "full"
	CapacityBusy      CapacityStatus = "busy"
	CapacityAvailable CapacityStatus = "available"
	CapacityEmpty     CapacityStatus = "empty"
)

// CapacityColor is the badge color of a CapacityStatus.
type CapacityColor string

const (
	ColorRed    CapacityColor = "red"
	ColorYellow CapacityColor = "yellow"
	ColorGreen  CapacityColor = "green"
	ColorGray   CapacityColor = "gray"
)

// DayCapacity is the derived occupancy of one date.
type DayCapacity struct {
	Date          string         `json:"date"`
	TotalSlots    int            `json:"total_slots"`
	OccupiedSlots int            `json:"occupied_slots"`
	FreeSlots     int            `json:"free_slots"`
	Percentage    int            `json:"percentage"`
	Status        CapacityStatus `json:"status"`
	Color         CapacityColor  `json:"color"`
}

// Bookable is false for full (red) days, which must not be selectable even
// before any slot query runs.
func (d DayCapacity) Bookable() bool {
	return d.Color != ColorRed
}
