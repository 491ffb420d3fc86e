package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/internal/domain/ride"
)

// Shared column list for booking queries
const bookingColumns = `
	id, ride_id, passenger_id, seats_booked, total_fare,
	status, payment_status, cancelled_by, cancel_reason,
	confirmed_at, coming_at, picked_up_at, in_transit_at,
	dropped_off_at, completed_at, rejected_at, cancelled_at,
	created_at, updated_at`

// timestampColumn maps a target status to the column stamped on entry
var timestampColumn = map[booking.Status]string{
	booking.StatusConfirmed:       "confirmed_at",
	booking.StatusComingForPickup: "coming_at",
	booking.StatusPickedUp:        "picked_up_at",
	booking.StatusInTransit:       "in_transit_at",
	booking.StatusDroppedOff:      "dropped_off_at",
	booking.StatusCompleted:       "completed_at",
	booking.StatusRejected:        "rejected_at",
	booking.StatusCancelled:       "cancelled_at",
}

// scanBooking scans a row into a Booking
func scanBooking(scan func(dest ...interface{}) error) (*booking.Booking, error) {
	b := &booking.Booking{}
	var cancelledBy, reason sql.NullString
	err := scan(
		&b.ID, &b.RideID, &b.PassengerID, &b.SeatsBooked, &b.TotalFare,
		&b.Status, &b.PaymentStatus, &cancelledBy, &reason,
		&b.ConfirmedAt, &b.ComingAt, &b.PickedUpAt, &b.InTransitAt,
		&b.DroppedOffAt, &b.CompletedAt, &b.RejectedAt, &b.CancelledAt,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cancelledBy.Valid {
		actor := booking.CancelActor(cancelledBy.String)
		b.CancelledBy = &actor
	}
	b.CancelReason = reason.String
	return b, nil
}

// BookingRepository implements booking.Repository on PostgreSQL
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateWithReservation reserves seats and inserts the booking atomically.
// The guarded UPDATE takes the ride's row lock, so two passengers racing on
// the last seats serialize in the database and exactly one wins.
func (r *BookingRepository) CreateWithReservation(ctx context.Context, b *booking.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE rides SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1
		  AND status = 'scheduled'
		  AND available_seats >= $2
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.ride_id = $1
			  AND b.passenger_id = $3
			  AND b.status NOT IN ('cancelled', 'rejected')
		  )
	`, b.RideID, b.SeatsBooked, b.PassengerID)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return r.classifyReservationFailure(ctx, tx, b)
	}

	// The ride row is locked by the seat decrement above, so the fare read
	// here snapshots the per-seat price the reservation was made at.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO bookings (
			id, ride_id, passenger_id, seats_booked, total_fare,
			status, payment_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4,
			$4 * (SELECT fare_per_seat FROM rides WHERE id = $2),
			$5, $6, NOW(), NOW())
		RETURNING total_fare
	`, b.ID, b.RideID, b.PassengerID, b.SeatsBooked,
		b.Status, b.PaymentStatus).Scan(&b.TotalFare)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

// classifyReservationFailure explains a zero-row reservation inside the tx
func (r *BookingRepository) classifyReservationFailure(ctx context.Context, tx *sql.Tx, b *booking.Booking) error {
	var status ride.Status
	var available int
	err := tx.QueryRowContext(ctx,
		`SELECT status, available_seats FROM rides WHERE id = $1`, b.RideID).
		Scan(&status, &available)
	if err == sql.ErrNoRows {
		return ride.ErrRideNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect ride: %w", err)
	}
	if status != ride.StatusScheduled {
		return ride.ErrRideNotBookable
	}
	if available < b.SeatsBooked {
		return ride.ErrInsufficientSeats
	}
	return booking.ErrAlreadyBooked
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns), id)
	b, err := scanBooking(row.Scan)
	if err == sql.ErrNoRows {
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// Transition moves the booking from exactly `from` to `to`. A concurrent
// transition that got there first leaves zero rows and a typed conflict.
func (r *BookingRepository) Transition(ctx context.Context, id uuid.UUID, from, to booking.Status) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE bookings SET status = $1, %s = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, timestampColumn[to]), to, id, from)
	if err != nil {
		return fmt.Errorf("failed to transition booking: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return booking.ErrTransitionConflict
	}
	return nil
}

// CancelWithRelease cancels the booking and returns its seats to the ride.
// The guarded status update feeds RETURNING into the seat release, so the
// release cannot run twice for one booking.
func (r *BookingRepository) CancelWithRelease(ctx context.Context, id uuid.UUID, from booking.Status, by booking.CancelActor, reason string) error {
	return r.releaseTransition(ctx, id, from, booking.StatusCancelled, `
		UPDATE bookings SET
			status = 'cancelled', cancelled_by = $3, cancel_reason = $4,
			cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ride_id, seats_booked
	`, by, reason)
}

// RejectWithRelease rejects a pending booking and returns its seats
func (r *BookingRepository) RejectWithRelease(ctx context.Context, id uuid.UUID) error {
	return r.releaseTransition(ctx, id, booking.StatusPending, booking.StatusRejected, `
		UPDATE bookings SET
			status = 'rejected', rejected_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ride_id, seats_booked
	`)
}

func (r *BookingRepository) releaseTransition(ctx context.Context, id uuid.UUID, from, to booking.Status, query string, extraArgs ...interface{}) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := append([]interface{}{id, from}, extraArgs...)
	var rideID uuid.UUID
	var seats int
	err = tx.QueryRowContext(ctx, query, args...).Scan(&rideID, &seats)
	if err == sql.ErrNoRows {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return booking.ErrTransitionConflict
	}
	if err != nil {
		return fmt.Errorf("failed to transition booking to %s: %w", to, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE rides SET available_seats = available_seats + $2, updated_at = NOW()
		WHERE id = $1
	`, rideID, seats)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking %s: %w", to, err)
	}
	return nil
}

// Complete finishes the booking, marks the payment paid and credits the
// driver's cumulative counters with the snapshotted fare. The dropped-off
// guard means a duplicate completion request finds zero rows and credits
// nothing a second time.
func (r *BookingRepository) Complete(ctx context.Context, id uuid.UUID, driverID uuid.UUID, fare float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings SET
			status = 'completed', payment_status = 'paid',
			completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'dropped-off'
	`, id)
	if err != nil {
		return fmt.Errorf("failed to complete booking: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return booking.ErrTransitionConflict
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE drivers SET
			total_rides = total_rides + 1,
			total_earnings = total_earnings + $2,
			updated_at = NOW()
		WHERE id = $1
	`, driverID, fare)
	if err != nil {
		return fmt.Errorf("failed to credit driver earnings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking completion: %w", err)
	}
	return nil
}

// ListByPassenger returns all bookings by a passenger, newest first
func (r *BookingRepository) ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*booking.Booking, error) {
	return r.list(ctx, fmt.Sprintf(`
		SELECT %s FROM bookings WHERE passenger_id = $1 ORDER BY created_at DESC
	`, bookingColumns), passengerID)
}

// ListActiveByPassenger returns bookings in non-terminal states
func (r *BookingRepository) ListActiveByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*booking.Booking, error) {
	return r.list(ctx, fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE passenger_id = $1 AND status NOT IN ('completed', 'cancelled', 'rejected')
		ORDER BY created_at DESC
	`, bookingColumns), passengerID)
}

// ListByRide returns all bookings on a ride, oldest first
func (r *BookingRepository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*booking.Booking, error) {
	return r.list(ctx, fmt.Sprintf(`
		SELECT %s FROM bookings WHERE ride_id = $1 ORDER BY created_at ASC
	`, bookingColumns), rideID)
}

// CountConfirmedOrLater counts bookings past the pending gate on a ride
func (r *BookingRepository) CountConfirmedOrLater(ctx context.Context, rideID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE ride_id = $1 AND status NOT IN ('pending', 'cancelled', 'rejected')
	`, rideID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// HistoryTotals aggregates a passenger's finished bookings
func (r *BookingRepository) HistoryTotals(ctx context.Context, passengerID uuid.UUID) (*booking.HistoryTotals, error) {
	totals := &booking.HistoryTotals{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(SUM(total_fare) FILTER (WHERE status = 'completed'), 0)
		FROM bookings
		WHERE passenger_id = $1
	`, passengerID).Scan(&totals.CompletedCount, &totals.CancelledCount, &totals.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate booking history: %w", err)
	}
	return totals, nil
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...interface{}) ([]*booking.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
