package driver

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for driver profile access.
// The earnings/ride counters are credited inside booking completion
// transactions (see booking.Repository.Complete), not through here.
type Repository interface {
	// GetByID retrieves a driver profile by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
}
