package models

// Table locations mirror the floor plan.
const (
	LocationIndoor      = "indoor"
	LocationOutdoor     = "outdoor"
	LocationPrivateRoom = "private_room"
)

// Table is a physical table in the dining room. Capacity is immutable
// as far as the reservation engine is concerned; changing it is an
// administrative action outside this code.
type Table struct {
	ID       string `json:"id" yaml:"-"`
	Number   int    `json:"number" yaml:"number"`
	Capacity int    `json:"capacity" yaml:"capacity"`
	Location string `json:"location" yaml:"location"`
	IsActive bool   `json:"is_active" yaml:"-"`
}

// Fits reports whether a party of the given size can be seated.
func (t Table) Fits(guests int) bool {
	return guests <= t.Capacity
}
