package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/domain/driver"
)

// DriverRepository implements driver.Repository on PostgreSQL
type DriverRepository struct {
	db *sql.DB
}

// NewDriverRepository creates a new driver repository
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

// GetByID retrieves a driver profile by ID
func (r *DriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*driver.Profile, error) {
	p := &driver.Profile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, approved, rating, total_rides, total_earnings, created_at, updated_at
		FROM drivers
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Approved, &p.Rating, &p.TotalRides, &p.TotalEarnings,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, driver.ErrDriverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return p, nil
}
