package models

import "time"

type Queue struct {
	ID       int    `json:"id"`
	VenueID  int    `json:"venue_id"`
	Name     string `json:"name"`
	NameAr   string `json:"name_ar"`
	// MaxCapacity bounds simultaneous occupancy; CurrentCount is the sum
	// of group sizes of all reservations admitted so far.
	MaxCapacity           int       `json:"max_capacity"`
	CurrentCount          int       `json:"current_count"`
	ServiceMinutesPerUnit float64   `json:"service_minutes_per_unit"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
}
