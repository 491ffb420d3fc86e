package booking

import (
	"context"

	"github.com/google/uuid"
)

// HistoryTotals summarizes a passenger's finished bookings
type HistoryTotals struct {
	CompletedCount int     `json:"completed_count"`
	CancelledCount int     `json:"cancelled_count"`
	TotalSpent     float64 `json:"total_spent"`
}

// Repository defines the interface for booking data access.
//
// Every method that moves status or seats applies its guard and its writes
// in one transaction: the guard is a conditional UPDATE on the expected
// current state, so concurrent callers racing on the same booking or ride
// resolve to exactly one winner and the losers get a typed conflict error.
type Repository interface {
	// CreateWithReservation atomically checks the parent ride (bookable,
	// enough seats, passenger not already booked), decrements
	// available_seats and inserts the booking as pending. Failure reasons
	// surface as ride.ErrRideNotFound, ride.ErrRideNotBookable,
	// ride.ErrInsufficientSeats or ErrAlreadyBooked.
	CreateWithReservation(ctx context.Context, b *Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// Transition moves the booking from exactly `from` to `to`, stamping the
	// matching timestamp column. Returns ErrTransitionConflict when the
	// booking is no longer in `from`.
	Transition(ctx context.Context, id uuid.UUID, from, to Status) error

	// CancelWithRelease moves pending|confirmed to cancelled and gives the
	// reserved seats back to the ride in the same transaction, so a release
	// can never be applied twice for one booking.
	CancelWithRelease(ctx context.Context, id uuid.UUID, from Status, by CancelActor, reason string) error

	// RejectWithRelease moves pending to rejected and gives the reserved
	// seats back to the ride in the same transaction.
	RejectWithRelease(ctx context.Context, id uuid.UUID) error

	// Complete moves dropped-off to completed, marks the payment paid and
	// credits the driver's total_rides and total_earnings with the
	// snapshotted fare. The guarded status update makes the driver credit
	// happen exactly once even if completion is requested twice.
	Complete(ctx context.Context, id uuid.UUID, driverID uuid.UUID, fare float64) error

	// ListByPassenger returns all bookings by a passenger, newest first
	ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*Booking, error)

	// ListActiveByPassenger returns bookings in non-terminal states
	ListActiveByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*Booking, error)

	// ListByRide returns all bookings on a ride, oldest first
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]*Booking, error)

	// CountConfirmedOrLater counts bookings on a ride that are confirmed or
	// further along the chain (used by ride edit guards)
	CountConfirmedOrLater(ctx context.Context, rideID uuid.UUID) (int, error)

	// HistoryTotals aggregates a passenger's completed and cancelled
	// bookings with the spend over completed ones
	HistoryTotals(ctx context.Context, passengerID uuid.UUID) (*HistoryTotals, error)
}
