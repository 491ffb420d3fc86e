package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/internal/domain/ride"
)

// Shared column list for ride queries
const rideColumns = `
	id, driver_id,
	origin_address, origin_city, origin_latitude, origin_longitude,
	destination_address, destination_city, destination_latitude, destination_longitude,
	departure_time, total_seats, available_seats, fare_per_seat,
	status, vehicle_note,
	started_at, completed_at, cancelled_at, created_at, updated_at`

// scanRide scans a row into a Ride
func scanRide(scan func(dest ...interface{}) error) (*ride.Ride, error) {
	r := &ride.Ride{}
	var note sql.NullString
	err := scan(
		&r.ID, &r.DriverID,
		&r.Origin.Address, &r.Origin.City, &r.Origin.Latitude, &r.Origin.Longitude,
		&r.Destination.Address, &r.Destination.City, &r.Destination.Latitude, &r.Destination.Longitude,
		&r.DepartureTime, &r.TotalSeats, &r.AvailableSeats, &r.FarePerSeat,
		&r.Status, &note,
		&r.StartedAt, &r.CompletedAt, &r.CancelledAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.VehicleNote = note.String
	return r, nil
}

// RideRepository implements ride.Repository on PostgreSQL
type RideRepository struct {
	db *sql.DB
}

// NewRideRepository creates a new ride repository
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{db: db}
}

// Create creates a new ride with a full seat inventory
func (r *RideRepository) Create(ctx context.Context, rd *ride.Ride) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rides (
			id, driver_id,
			origin_address, origin_city, origin_latitude, origin_longitude,
			destination_address, destination_city, destination_latitude, destination_longitude,
			departure_time, total_seats, available_seats, fare_per_seat,
			status, vehicle_note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12, $13, $14, $15, NOW(), NOW())
	`, rd.ID, rd.DriverID,
		rd.Origin.Address, rd.Origin.City, rd.Origin.Latitude, rd.Origin.Longitude,
		rd.Destination.Address, rd.Destination.City, rd.Destination.Latitude, rd.Destination.Longitude,
		rd.DepartureTime, rd.TotalSeats, rd.FarePerSeat, rd.Status, rd.VehicleNote)
	if err != nil {
		return fmt.Errorf("failed to insert ride: %w", err)
	}
	return nil
}

// GetByID retrieves a ride by ID
func (r *RideRepository) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM rides WHERE id = $1`, rideColumns), id)
	rd, err := scanRide(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ride.ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return rd, nil
}

// List returns upcoming scheduled rides, soonest departure first
func (r *RideRepository) List(ctx context.Context, limit, offset int) ([]*ride.Ride, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM rides
		WHERE status = 'scheduled' AND departure_time > NOW()
		ORDER BY departure_time ASC
		LIMIT $1 OFFSET $2
	`, rideColumns), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}
	defer rows.Close()
	return collectRides(rows)
}

// Search returns bookable rides matching the filter
func (r *RideRepository) Search(ctx context.Context, filter ride.SearchFilter) ([]*ride.Ride, error) {
	where := []string{"status = 'scheduled'", "departure_time > NOW()"}
	args := []interface{}{}
	argIdx := 1

	if filter.FromCity != "" {
		where = append(where, fmt.Sprintf("LOWER(origin_city) = LOWER($%d)", argIdx))
		args = append(args, filter.FromCity)
		argIdx++
	}
	if filter.ToCity != "" {
		where = append(where, fmt.Sprintf("LOWER(destination_city) = LOWER($%d)", argIdx))
		args = append(args, filter.ToCity)
		argIdx++
	}
	if filter.Date != nil {
		where = append(where, fmt.Sprintf("departure_time::date = $%d::date", argIdx))
		args = append(args, *filter.Date)
		argIdx++
	}
	if filter.MinSeats > 0 {
		where = append(where, fmt.Sprintf("available_seats >= $%d", argIdx))
		args = append(args, filter.MinSeats)
		argIdx++
	}

	query := fmt.Sprintf(`SELECT %s FROM rides WHERE %s ORDER BY departure_time ASC`,
		rideColumns, strings.Join(where, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search rides: %w", err)
	}
	defer rows.Close()
	return collectRides(rows)
}

// ListByDriver returns all rides posted by a driver
func (r *RideRepository) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*ride.Ride, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM rides WHERE driver_id = $1 ORDER BY departure_time DESC
	`, rideColumns), driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver rides: %w", err)
	}
	defer rows.Close()
	return collectRides(rows)
}

// Update rewrites schedule, capacity and fare fields. The booking guard and
// the write run in one statement so the edit cannot race a confirmation.
// Seat reservations held by pending bookings carry over: available_seats
// becomes the new total minus seats already reserved.
func (r *RideRepository) Update(ctx context.Context, rd *ride.Ride) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rides SET
			origin_address = $2, origin_city = $3, origin_latitude = $4, origin_longitude = $5,
			destination_address = $6, destination_city = $7, destination_latitude = $8, destination_longitude = $9,
			departure_time = $10,
			available_seats = $11 - (total_seats - available_seats),
			total_seats = $11,
			fare_per_seat = $12,
			vehicle_note = $13,
			updated_at = NOW()
		WHERE id = $1
		  AND status = 'scheduled'
		  AND $11 >= (total_seats - available_seats)
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.ride_id = rides.id
			  AND b.status NOT IN ('pending', 'cancelled', 'rejected')
		  )
	`, rd.ID,
		rd.Origin.Address, rd.Origin.City, rd.Origin.Latitude, rd.Origin.Longitude,
		rd.Destination.Address, rd.Destination.City, rd.Destination.Latitude, rd.Destination.Longitude,
		rd.DepartureTime, rd.TotalSeats, rd.FarePerSeat, rd.VehicleNote)
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return r.classifyUpdateFailure(ctx, rd.ID, rd.TotalSeats)
	}
	return nil
}

// classifyUpdateFailure explains a zero-row guarded update
func (r *RideRepository) classifyUpdateFailure(ctx context.Context, id uuid.UUID, newTotal int) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != ride.StatusScheduled {
		return ride.ErrRideNotBookable
	}
	reserved := current.TotalSeats - current.AvailableSeats
	if newTotal < reserved {
		return ride.ErrInvalidSeatCount
	}
	return ride.ErrRideLocked
}

// UpdateStatus moves the ride through its lifecycle. The expected current
// status rides in the WHERE clause so concurrent updates cannot double-apply.
func (r *RideRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status ride.Status) error {
	var from ride.Status
	var stamp string
	switch status {
	case ride.StatusInProgress:
		from, stamp = ride.StatusScheduled, "started_at"
	case ride.StatusCompleted:
		from, stamp = ride.StatusInProgress, "completed_at"
	default:
		return ride.ErrInvalidStatus
	}

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE rides SET status = $1, %s = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, stamp), status, id, from)
	if err != nil {
		return fmt.Errorf("failed to update ride status: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ride.ErrInvalidStatus
	}
	return nil
}

// CancelWithCascade cancels the ride and force-cancels its pending and
// confirmed bookings in one transaction. Seats stay where they are: the
// ride is terminal and no longer bookable.
func (r *RideRepository) CancelWithCascade(ctx context.Context, id uuid.UUID) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE rides SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('scheduled', 'in-progress')
	`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel ride: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return 0, err
		}
		return 0, ride.ErrInvalidStatus
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE bookings SET
			status = $2,
			cancelled_by = $3,
			cancel_reason = 'ride cancelled by driver',
			cancelled_at = NOW(),
			updated_at = NOW()
		WHERE ride_id = $1 AND status IN ($4, $5)
	`, id, booking.StatusCancelled, booking.CancelledByDriver,
		booking.StatusPending, booking.StatusConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to cascade booking cancellations: %w", err)
	}
	cancelled, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ride cancellation: %w", err)
	}
	return int(cancelled), nil
}

// Delete removes a ride only while no booking of any status references it
func (r *RideRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM rides
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM bookings b WHERE b.ride_id = $1)
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ride: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ride.ErrRideHasBookings
	}
	return nil
}

func collectRides(rows *sql.Rows) ([]*ride.Ride, error) {
	var rides []*ride.Ride
	for rows.Next() {
		rd, err := scanRide(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ride row: %w", err)
		}
		rides = append(rides, rd)
	}
	return rides, rows.Err()
}
