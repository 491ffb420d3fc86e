package ride

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SearchFilter narrows ride search results. City matches are
// case-insensitive; Date matches the calendar day of departure.
type SearchFilter struct {
	FromCity string
	ToCity   string
	Date     *time.Time
	MinSeats int
}

// Repository defines the interface for ride data access.
// Mutations that depend on booking state (Update, Delete, CancelWithCascade)
// must apply their guard condition and the write atomically.
type Repository interface {
	// Create creates a new ride with AvailableSeats = TotalSeats
	Create(ctx context.Context, r *Ride) error

	// GetByID retrieves a ride by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Ride, error)

	// List returns upcoming scheduled rides, soonest departure first
	List(ctx context.Context, limit, offset int) ([]*Ride, error)

	// Search returns bookable rides matching the filter
	Search(ctx context.Context, filter SearchFilter) ([]*Ride, error)

	// ListByDriver returns all rides posted by a driver
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*Ride, error)

	// Update rewrites schedule/capacity/fare fields. Fails with ErrRideLocked
	// when any booking on the ride is confirmed or further along.
	Update(ctx context.Context, r *Ride) error

	// UpdateStatus moves the ride through its lifecycle
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// CancelWithCascade sets the ride to cancelled and force-cancels every
	// pending or confirmed booking on it (cancelled_by = driver) in one
	// transaction. Seats are not re-released; the ride is terminal.
	// Returns the number of bookings cancelled.
	CancelWithCascade(ctx context.Context, id uuid.UUID) (int, error)

	// Delete removes a ride. Fails with ErrRideHasBookings when any booking
	// references it, regardless of booking status.
	Delete(ctx context.Context, id uuid.UUID) error
}
