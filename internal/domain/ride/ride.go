package ride

import (
	"time"

	"github.com/google/uuid"
)

// Status represents ride status
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// MaxSeats is the largest seat count a driver may post for a single ride.
const MaxSeats = 8

// Location represents one end of a posted trip
type Location struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Ride represents a trip posted by a driver with a fixed seat inventory.
// AvailableSeats is only ever mutated through booking transitions and is
// kept within [0, TotalSeats] by guarded updates in the repository.
type Ride struct {
	ID             uuid.UUID  `json:"id"`
	DriverID       uuid.UUID  `json:"driver_id"`
	Origin         Location   `json:"origin"`
	Destination    Location   `json:"destination"`
	DepartureTime  time.Time  `json:"departure_time"`
	TotalSeats     int        `json:"total_seats"`
	AvailableSeats int        `json:"available_seats"`
	FarePerSeat    float64    `json:"fare_per_seat"`
	Status         Status     `json:"status"`
	VehicleNote    string     `json:"vehicle_note,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks a driver status update against the ride lifecycle:
// scheduled -> in-progress -> completed, with scheduled|in-progress -> cancelled.
func (s Status) CanTransitionTo(target Status) bool {
	switch target {
	case StatusInProgress:
		return s == StatusScheduled
	case StatusCompleted:
		return s == StatusInProgress
	case StatusCancelled:
		return s == StatusScheduled || s == StatusInProgress
	}
	return false
}

// IsBookable returns true if new bookings may be created against the ride
func (r *Ride) IsBookable() bool {
	return r.Status == StatusScheduled
}

// Validate checks the fields a driver controls when posting or editing a ride
func (r *Ride) Validate(now time.Time) error {
	if r.TotalSeats < 1 || r.TotalSeats > MaxSeats {
		return ErrInvalidSeatCount
	}
	if r.FarePerSeat < 0 {
		return ErrInvalidFare
	}
	if !r.DepartureTime.After(now) {
		return ErrDepartureInPast
	}
	if r.Origin.Address == "" || r.Origin.City == "" {
		return ErrInvalidLocation
	}
	if r.Destination.Address == "" || r.Destination.City == "" {
		return ErrInvalidLocation
	}
	return nil
}
