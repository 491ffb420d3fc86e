package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/service/history"
)

// StatsRepository implements history.Repository on PostgreSQL
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// DriverDashboard aggregates a driver's rides, served bookings and reviews
func (r *StatsRepository) DriverDashboard(ctx context.Context, driverID uuid.UUID) (*history.DriverDashboard, error) {
	d := &history.DriverDashboard{}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM rides
		WHERE driver_id = $1
	`, driverID).Scan(&d.RidesPosted, &d.RidesCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rides: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE b.status = 'completed'),
			COALESCE(SUM(b.seats_booked) FILTER (WHERE b.status = 'completed'), 0)
		FROM bookings b
		JOIN rides r ON r.id = b.ride_id
		WHERE r.driver_id = $1
	`, driverID).Scan(&d.BookingsServed, &d.SeatsSold)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT
			dr.total_earnings,
			dr.rating,
			(SELECT COUNT(*) FROM reviews rv
			 WHERE rv.reviewee_id = dr.id
			   AND rv.review_type = 'passenger-to-driver'
			   AND rv.visible)
		FROM drivers dr
		WHERE dr.id = $1
	`, driverID).Scan(&d.TotalEarnings, &d.Rating, &d.ReviewCount)
	if err != nil {
		return nil, fmt.Errorf("failed to read driver profile: %w", err)
	}

	return d, nil
}
