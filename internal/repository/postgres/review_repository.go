package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/poolup/ride-sharing/internal/domain/review"
)

const reviewColumns = `
	id, booking_id, ride_id, reviewer_id, reviewee_id, review_type,
	rating, comment,
	aspect_punctuality, aspect_driving, aspect_cleanliness, aspect_communication,
	visible, created_at, updated_at`

const uniqueViolation = "23505"

// scanReview scans a row into a Review
func scanReview(scan func(dest ...interface{}) error) (*review.Review, error) {
	r := &review.Review{}
	var comment sql.NullString
	err := scan(
		&r.ID, &r.BookingID, &r.RideID, &r.ReviewerID, &r.RevieweeID, &r.Type,
		&r.Rating, &comment,
		&r.Aspects.Punctuality, &r.Aspects.Driving, &r.Aspects.Cleanliness, &r.Aspects.Communication,
		&r.Visible, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Comment = comment.String
	return r, nil
}

// ReviewRepository implements review.Repository on PostgreSQL
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. The UNIQUE (booking_id, reviewer_id) constraint
// is the authoritative duplicate gate under concurrent submissions.
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (
			id, booking_id, ride_id, reviewer_id, reviewee_id, review_type,
			rating, comment,
			aspect_punctuality, aspect_driving, aspect_cleanliness, aspect_communication,
			visible, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`, rv.ID, rv.BookingID, rv.RideID, rv.ReviewerID, rv.RevieweeID, rv.Type,
		rv.Rating, rv.Comment,
		rv.Aspects.Punctuality, rv.Aspects.Driving, rv.Aspects.Cleanliness, rv.Aspects.Communication,
		rv.Visible)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return review.ErrDuplicateReview
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns), id)
	rv, err := scanReview(row.Scan)
	if err == sql.ErrNoRows {
		return nil, review.ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return rv, nil
}

// Update rewrites rating, comment and aspect sub-ratings
func (r *ReviewRepository) Update(ctx context.Context, rv *review.Review) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reviews SET
			rating = $2, comment = $3,
			aspect_punctuality = $4, aspect_driving = $5,
			aspect_cleanliness = $6, aspect_communication = $7,
			visible = $8, updated_at = NOW()
		WHERE id = $1
	`, rv.ID, rv.Rating, rv.Comment,
		rv.Aspects.Punctuality, rv.Aspects.Driving,
		rv.Aspects.Cleanliness, rv.Aspects.Communication,
		rv.Visible)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return review.ErrReviewNotFound
	}
	return nil
}

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return review.ErrReviewNotFound
	}
	return nil
}

// ExistsForBooking reports whether the reviewer already reviewed the booking
func (r *ReviewRepository) ExistsForBooking(ctx context.Context, bookingID, reviewerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reviews WHERE booking_id = $1 AND reviewer_id = $2
		)
	`, bookingID, reviewerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}
	return exists, nil
}

// ListVisibleForDriver returns visible passenger-to-driver reviews, newest first
func (r *ReviewRepository) ListVisibleForDriver(ctx context.Context, driverID uuid.UUID) ([]*review.Review, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM reviews
		WHERE reviewee_id = $1 AND review_type = $2 AND visible
		ORDER BY created_at DESC
	`, reviewColumns), driverID, review.TypePassengerToDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*review.Review
	for rows.Next() {
		rv, err := scanReview(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// RecomputeDriverRating recalculates the driver's mean rating wholesale.
// AVG over the current visible set keeps the aggregate correct after edits
// and deletions without compensating arithmetic.
func (r *ReviewRepository) RecomputeDriverRating(ctx context.Context, driverID uuid.UUID) (float64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var rating float64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0)
		FROM reviews
		WHERE reviewee_id = $1 AND review_type = $2 AND visible
	`, driverID, review.TypePassengerToDriver).Scan(&rating)
	if err != nil {
		return 0, fmt.Errorf("failed to compute driver rating: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE drivers SET rating = $2, updated_at = NOW() WHERE id = $1
	`, driverID, rating)
	if err != nil {
		return 0, fmt.Errorf("failed to store driver rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rating recompute: %w", err)
	}
	return rating, nil
}
