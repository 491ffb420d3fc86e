package booking

import (
	"time"

	"github.com/google/uuid"
)

// CancelActor records which party cancelled a booking
type CancelActor string

const (
	CancelledByPassenger CancelActor = "passenger"
	CancelledByDriver    CancelActor = "driver"
)

// PaymentStatus tracks the payment side of a booking
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Booking represents one passenger's reservation against one ride.
// TotalFare is snapshotted at creation time (SeatsBooked x the ride's
// FarePerSeat at that moment) and never recomputed afterwards.
type Booking struct {
	ID            uuid.UUID     `json:"id"`
	RideID        uuid.UUID     `json:"ride_id"`
	PassengerID   uuid.UUID     `json:"passenger_id"`
	SeatsBooked   int           `json:"seats_booked"`
	TotalFare     float64       `json:"total_fare"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CancelledBy   *CancelActor  `json:"cancelled_by,omitempty"`
	CancelReason  string        `json:"cancel_reason,omitempty"`
	ConfirmedAt   *time.Time    `json:"confirmed_at,omitempty"`
	ComingAt      *time.Time    `json:"coming_at,omitempty"`
	PickedUpAt    *time.Time    `json:"picked_up_at,omitempty"`
	InTransitAt   *time.Time    `json:"in_transit_at,omitempty"`
	DroppedOffAt  *time.Time    `json:"dropped_off_at,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	RejectedAt    *time.Time    `json:"rejected_at,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// SnapshotFare fixes the fare for the requested seats at the current
// per-seat price. Later fare edits on the ride do not touch it.
func SnapshotFare(seats int, farePerSeat float64) float64 {
	return float64(seats) * farePerSeat
}
