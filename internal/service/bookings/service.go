package bookings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/internal/domain/ride"
	"github.com/poolup/ride-sharing/internal/notify"
	"github.com/poolup/ride-sharing/pkg/logger"
)

// progressTargets are the statuses a driver may advance a booking into
// through UpdateStatus. Confirmation and rejection go through Respond.
var progressTargets = map[booking.Status]bool{
	booking.StatusComingForPickup: true,
	booking.StatusPickedUp:        true,
	booking.StatusInTransit:       true,
	booking.StatusDroppedOff:      true,
	booking.StatusCompleted:       true,
}

// Service drives the booking lifecycle: creation against the ride's seat
// inventory, the driver-response and progress transitions, and the side
// exits. Atomicity of seat accounting lives in the repository; this layer
// owns role checks and the transition table.
type Service struct {
	bookings booking.Repository
	rides    ride.Repository
	notifier notify.Notifier
	logger   *logger.Logger
}

// NewService creates a new booking service
func NewService(bookings booking.Repository, rides ride.Repository, notifier notify.Notifier, log *logger.Logger) *Service {
	return &Service{
		bookings: bookings,
		rides:    rides,
		notifier: notifier,
		logger:   log,
	}
}

// Create books seats on a ride for a passenger. Seat check, duplicate-booking
// check and the decrement are one atomic repository operation, and the fare
// is snapshotted from the ride's per-seat price inside that same operation.
func (s *Service) Create(ctx context.Context, passengerID, rideID uuid.UUID, seats int) (*booking.Booking, error) {
	if seats < 1 {
		return nil, booking.ErrInvalidSeats
	}

	rd, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if rd.DriverID == passengerID {
		return nil, booking.ErrOwnRide
	}

	b := &booking.Booking{
		ID:            uuid.New(),
		RideID:        rideID,
		PassengerID:   passengerID,
		SeatsBooked:   seats,
		TotalFare:     booking.SnapshotFare(seats, rd.FarePerSeat),
		Status:        booking.StatusPending,
		PaymentStatus: booking.PaymentPending,
	}

	if err := s.bookings.CreateWithReservation(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		logger.String("booking_id", b.ID.String()),
		logger.String("ride_id", rideID.String()),
		logger.String("passenger_id", passengerID.String()),
		logger.Int("seats", seats),
		logger.Float64("total_fare", b.TotalFare),
	)

	s.notifier.ToUser(rd.DriverID, "booking_requested", map[string]interface{}{
		"booking_id": b.ID,
		"ride_id":    rideID,
		"seats":      seats,
	})

	return s.bookings.GetByID(ctx, b.ID)
}

// Respond records the driver's answer to a pending booking. Rejection gives
// the reserved seats back to the ride in the same transaction.
func (s *Service) Respond(ctx context.Context, driverID, bookingID uuid.UUID, accept bool) (*booking.Booking, error) {
	b, rd, err := s.getWithRide(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if rd.DriverID != driverID {
		return nil, booking.ErrNotRideDriver
	}

	target := booking.StatusRejected
	if accept {
		target = booking.StatusConfirmed
	}
	if !b.Status.CanTransitionTo(target) {
		return nil, booking.NewTransitionError(b.Status, target)
	}

	if accept {
		err = s.bookings.Transition(ctx, bookingID, booking.StatusPending, booking.StatusConfirmed)
	} else {
		err = s.bookings.RejectWithRelease(ctx, bookingID)
	}
	if err != nil {
		return nil, s.resolveConflict(ctx, bookingID, target, err)
	}

	s.logger.Info("Driver responded to booking",
		logger.String("booking_id", bookingID.String()),
		logger.String("status", string(target)),
	)

	s.notifier.ToUser(b.PassengerID, "booking_"+string(target), map[string]interface{}{
		"booking_id": bookingID,
		"ride_id":    b.RideID,
	})

	return s.bookings.GetByID(ctx, bookingID)
}

// Cancel lets the booking's passenger back out while the booking is still
// pending or confirmed. Seats go back to the ride atomically.
func (s *Service) Cancel(ctx context.Context, passengerID, bookingID uuid.UUID, reason string) (*booking.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PassengerID != passengerID {
		return nil, booking.ErrNotBookingPassenger
	}
	if !b.Status.CanTransitionTo(booking.StatusCancelled) {
		return nil, booking.NewTransitionError(b.Status, booking.StatusCancelled)
	}

	err = s.bookings.CancelWithRelease(ctx, bookingID, b.Status, booking.CancelledByPassenger, reason)
	if err != nil {
		return nil, s.resolveConflict(ctx, bookingID, booking.StatusCancelled, err)
	}

	s.logger.Info("Booking cancelled by passenger",
		logger.String("booking_id", bookingID.String()),
		logger.String("reason", reason),
	)

	rd, err := s.rides.GetByID(ctx, b.RideID)
	if err == nil {
		s.notifier.ToUser(rd.DriverID, "booking_cancelled", map[string]interface{}{
			"booking_id": bookingID,
			"ride_id":    b.RideID,
			"seats":      b.SeatsBooked,
		})
	}

	return s.bookings.GetByID(ctx, bookingID)
}

// UpdateStatus advances a confirmed booking along the progress chain. Only
// the ride's driver may drive it, one adjacent step at a time. Reaching
// completed marks the payment paid and credits the driver exactly once.
func (s *Service) UpdateStatus(ctx context.Context, driverID, bookingID uuid.UUID, target booking.Status) (*booking.Booking, error) {
	if !target.IsValid() {
		return nil, booking.ErrInvalidTransition
	}

	b, rd, err := s.getWithRide(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if rd.DriverID != driverID {
		return nil, booking.ErrNotRideDriver
	}
	if !progressTargets[target] || !b.Status.CanTransitionTo(target) {
		return nil, booking.NewTransitionError(b.Status, target)
	}

	if target == booking.StatusCompleted {
		err = s.bookings.Complete(ctx, bookingID, rd.DriverID, b.TotalFare)
	} else {
		err = s.bookings.Transition(ctx, bookingID, b.Status, target)
	}
	if err != nil {
		return nil, s.resolveConflict(ctx, bookingID, target, err)
	}

	s.logger.Info("Booking status updated",
		logger.String("booking_id", bookingID.String()),
		logger.String("from", string(b.Status)),
		logger.String("to", string(target)),
	)

	s.notifier.ToUser(b.PassengerID, "booking_status", map[string]interface{}{
		"booking_id": bookingID,
		"status":     target,
	})
	if target == booking.StatusCompleted {
		s.notifier.ToDashboard("booking_completed", map[string]interface{}{
			"booking_id": bookingID,
			"ride_id":    b.RideID,
			"fare":       b.TotalFare,
		})
	}

	return s.bookings.GetByID(ctx, bookingID)
}

// GetByID returns a booking to one of its participants
func (s *Service) GetByID(ctx context.Context, userID, bookingID uuid.UUID) (*booking.Booking, error) {
	b, rd, err := s.getWithRide(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PassengerID != userID && rd.DriverID != userID {
		return nil, booking.ErrNotParticipant
	}
	return b, nil
}

// ListMine returns all bookings by a passenger, newest first
func (s *Service) ListMine(ctx context.Context, passengerID uuid.UUID) ([]*booking.Booking, error) {
	return s.bookings.ListByPassenger(ctx, passengerID)
}

// ListActive returns the passenger's bookings still in flight
func (s *Service) ListActive(ctx context.Context, passengerID uuid.UUID) ([]*booking.Booking, error) {
	return s.bookings.ListActiveByPassenger(ctx, passengerID)
}

// ListForRide returns a ride's bookings to its driver
func (s *Service) ListForRide(ctx context.Context, driverID, rideID uuid.UUID) ([]*booking.Booking, error) {
	rd, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if rd.DriverID != driverID {
		return nil, booking.ErrNotRideDriver
	}
	return s.bookings.ListByRide(ctx, rideID)
}

func (s *Service) getWithRide(ctx context.Context, bookingID uuid.UUID) (*booking.Booking, *ride.Ride, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	rd, err := s.rides.GetByID(ctx, b.RideID)
	if err != nil {
		return nil, nil, err
	}
	return b, rd, nil
}

// resolveConflict turns a lost transition race into the same typed
// rejection an illegal request gets, carrying the status that won.
func (s *Service) resolveConflict(ctx context.Context, bookingID uuid.UUID, target booking.Status, err error) error {
	if !errors.Is(err, booking.ErrTransitionConflict) {
		return err
	}
	current, getErr := s.bookings.GetByID(ctx, bookingID)
	if getErr != nil {
		return err
	}
	if current.Status.CanTransitionTo(target) {
		// The target is still reachable from the winner's state; tell the
		// caller to retry rather than claim the transition is illegal.
		return err
	}
	return booking.NewTransitionError(current.Status, target)
}
