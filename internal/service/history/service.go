package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// DriverDashboard is the driver-facing aggregate view
type DriverDashboard struct {
	RidesPosted    int     `json:"rides_posted"`
	RidesCompleted int     `json:"rides_completed"`
	BookingsServed int     `json:"bookings_served"`
	SeatsSold      int     `json:"seats_sold"`
	TotalEarnings  float64 `json:"total_earnings"`
	Rating         float64 `json:"rating"`
	ReviewCount    int     `json:"review_count"`
}

// PassengerHistory is a passenger's finished bookings with totals
type PassengerHistory struct {
	Completed []*booking.Booking     `json:"completed"`
	Cancelled []*booking.Booking     `json:"cancelled"`
	Totals    *booking.HistoryTotals `json:"totals"`
}

// Repository defines the aggregation queries behind the dashboard
type Repository interface {
	DriverDashboard(ctx context.Context, driverID uuid.UUID) (*DriverDashboard, error)
}

// Service serves the read-only history and stats views. Dashboards are
// cached briefly in Redis; the underlying tables stay authoritative.
type Service struct {
	repo     Repository
	bookings booking.Repository
	redis    *redis.Client
	logger   *logger.Logger
	cacheTTL time.Duration
}

// NewService creates a new history service
func NewService(repo Repository, bookings booking.Repository, redisClient *redis.Client, log *logger.Logger, cacheTTL time.Duration) *Service {
	if cacheTTL == 0 {
		cacheTTL = 60 * time.Second
	}
	return &Service{
		repo:     repo,
		bookings: bookings,
		redis:    redisClient,
		logger:   log,
		cacheTTL: cacheTTL,
	}
}

// DriverDashboard returns the driver's aggregate stats
func (s *Service) DriverDashboard(ctx context.Context, driverID uuid.UUID) (*DriverDashboard, error) {
	key := "dashboard:driver:" + driverID.String()
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			dashboard := &DriverDashboard{}
			if err := json.Unmarshal([]byte(cached), dashboard); err == nil {
				return dashboard, nil
			}
		}
	}

	dashboard, err := s.repo.DriverDashboard(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(dashboard); err == nil {
			if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("Failed to cache driver dashboard", logger.Err(err))
			}
		}
	}
	return dashboard, nil
}

// PassengerHistory returns the passenger's finished bookings split by
// outcome, with spend totals over the completed set.
func (s *Service) PassengerHistory(ctx context.Context, passengerID uuid.UUID) (*PassengerHistory, error) {
	all, err := s.bookings.ListByPassenger(ctx, passengerID)
	if err != nil {
		return nil, err
	}

	hist := &PassengerHistory{
		Completed: []*booking.Booking{},
		Cancelled: []*booking.Booking{},
	}
	for _, b := range all {
		switch b.Status {
		case booking.StatusCompleted:
			hist.Completed = append(hist.Completed, b)
		case booking.StatusCancelled, booking.StatusRejected:
			hist.Cancelled = append(hist.Cancelled, b)
		}
	}

	totals, err := s.bookings.HistoryTotals(ctx, passengerID)
	if err != nil {
		return nil, err
	}
	hist.Totals = totals
	return hist, nil
}
