package driver

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the slice of the driver account this core reads and mutates.
// Identity and vehicle data entry live with the auth collaborator; the core
// needs the approval flag to gate ride posting, and it owns the Rating
// cache and the cumulative ride/earnings counters.
type Profile struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Approved      bool      `json:"approved"`
	Rating        float64   `json:"rating"`
	TotalRides    int       `json:"total_rides"`
	TotalEarnings float64   `json:"total_earnings"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CanPostRides returns true if the driver may create rides
func (p *Profile) CanPostRides() bool {
	return p.Approved
}
