package rides

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/internal/domain/driver"
	"github.com/poolup/ride-sharing/internal/domain/ride"
	"github.com/poolup/ride-sharing/internal/notify"
	"github.com/poolup/ride-sharing/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// originsKey is the Redis geo index of scheduled ride origins
const originsKey = "rides:origins"

// Config holds ride search configuration
type Config struct {
	NearbyRadiusKM float64 // default search radius for proximity queries
	NearbyLimit    int     // max candidates returned from the geo index
}

// RideInput carries the driver-controlled fields of a posted ride
type RideInput struct {
	Origin        ride.Location
	Destination   ride.Location
	DepartureTime time.Time
	TotalSeats    int
	FarePerSeat   float64
	VehicleNote   string
}

// Service owns the ride inventory: posting, search, schedule edits and the
// ride lifecycle including the cancellation cascade over bookings.
type Service struct {
	rides    ride.Repository
	drivers  driver.Repository
	redis    *redis.Client
	notifier notify.Notifier
	logger   *logger.Logger
	config   Config
}

// NewService creates a new ride service
func NewService(rides ride.Repository, drivers driver.Repository, redisClient *redis.Client, notifier notify.Notifier, log *logger.Logger, config Config) *Service {
	if config.NearbyRadiusKM == 0 {
		config.NearbyRadiusKM = 25.0
	}
	if config.NearbyLimit == 0 {
		config.NearbyLimit = 50
	}
	return &Service{
		rides:    rides,
		drivers:  drivers,
		redis:    redisClient,
		notifier: notifier,
		logger:   log,
		config:   config,
	}
}

// Create posts a new ride. Only approved drivers may post, departure must be
// in the future, and the seat inventory starts full.
func (s *Service) Create(ctx context.Context, driverID uuid.UUID, input RideInput) (*ride.Ride, error) {
	prof, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !prof.CanPostRides() {
		return nil, driver.ErrDriverNotApproved
	}

	rd := &ride.Ride{
		ID:             uuid.New(),
		DriverID:       driverID,
		Origin:         input.Origin,
		Destination:    input.Destination,
		DepartureTime:  input.DepartureTime,
		TotalSeats:     input.TotalSeats,
		AvailableSeats: input.TotalSeats,
		FarePerSeat:    input.FarePerSeat,
		Status:         ride.StatusScheduled,
		VehicleNote:    input.VehicleNote,
	}
	if err := rd.Validate(time.Now()); err != nil {
		return nil, err
	}

	if err := s.rides.Create(ctx, rd); err != nil {
		return nil, err
	}

	s.indexOrigin(ctx, rd)

	s.logger.Info("Ride created",
		logger.String("ride_id", rd.ID.String()),
		logger.String("driver_id", driverID.String()),
		logger.Int("total_seats", rd.TotalSeats),
		logger.Float64("fare_per_seat", rd.FarePerSeat),
	)

	return s.rides.GetByID(ctx, rd.ID)
}

// GetByID retrieves a ride by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	return s.rides.GetByID(ctx, id)
}

// List returns upcoming scheduled rides
func (s *Service) List(ctx context.Context, limit, offset int) ([]*ride.Ride, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.rides.List(ctx, limit, offset)
}

// Search returns bookable rides matching the city/date/seat filter
func (s *Service) Search(ctx context.Context, filter ride.SearchFilter) ([]*ride.Ride, error) {
	return s.rides.Search(ctx, filter)
}

// SearchNearby returns bookable rides whose origin lies within radiusKM of
// the given point, nearest first, via the Redis geo index.
func (s *Service) SearchNearby(ctx context.Context, lat, lng, radiusKM float64) ([]*ride.Ride, error) {
	if s.redis == nil {
		return nil, nil
	}
	if radiusKM <= 0 {
		radiusKM = s.config.NearbyRadiusKM
	}

	results, err := s.redis.GeoRadius(ctx, originsKey, lng, lat, &redis.GeoRadiusQuery{
		Radius: radiusKM,
		Unit:   "km",
		Count:  s.config.NearbyLimit,
		Sort:   "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	var rides []*ride.Ride
	for _, result := range results {
		id, err := uuid.Parse(result.Name)
		if err != nil {
			continue
		}
		rd, err := s.rides.GetByID(ctx, id)
		if err != nil {
			// Index entry outlived the ride; drop it.
			s.redis.ZRem(ctx, originsKey, result.Name)
			continue
		}
		if rd.IsBookable() {
			rides = append(rides, rd)
		}
	}
	return rides, nil
}

// ListByDriver returns all rides posted by a driver
func (s *Service) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*ride.Ride, error) {
	return s.rides.ListByDriver(ctx, driverID)
}

// Update rewrites a ride's schedule, capacity and fare. Only the owning
// driver, and only while no booking has been confirmed.
func (s *Service) Update(ctx context.Context, driverID, rideID uuid.UUID, input RideInput) (*ride.Ride, error) {
	rd, err := s.owned(ctx, driverID, rideID)
	if err != nil {
		return nil, err
	}

	rd.Origin = input.Origin
	rd.Destination = input.Destination
	rd.DepartureTime = input.DepartureTime
	rd.TotalSeats = input.TotalSeats
	rd.FarePerSeat = input.FarePerSeat
	rd.VehicleNote = input.VehicleNote
	if err := rd.Validate(time.Now()); err != nil {
		return nil, err
	}

	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, err
	}

	s.indexOrigin(ctx, rd)

	s.logger.Info("Ride updated", logger.String("ride_id", rideID.String()))
	return s.rides.GetByID(ctx, rideID)
}

// UpdateStatus moves a ride through its lifecycle. Cancelling cascades: every
// pending or confirmed booking on the ride is force-cancelled with
// cancelled_by = driver in the same transaction, with no per-booking seat
// release since the ride itself is terminal.
func (s *Service) UpdateStatus(ctx context.Context, driverID, rideID uuid.UUID, target ride.Status) (*ride.Ride, error) {
	rd, err := s.owned(ctx, driverID, rideID)
	if err != nil {
		return nil, err
	}
	if !rd.Status.CanTransitionTo(target) {
		return nil, ride.ErrInvalidStatus
	}

	if target == ride.StatusCancelled {
		cancelled, err := s.rides.CancelWithCascade(ctx, rideID)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Ride cancelled",
			logger.String("ride_id", rideID.String()),
			logger.Int("bookings_cancelled", cancelled),
		)
		s.notifier.ToDashboard("ride_cancelled", map[string]interface{}{
			"ride_id":            rideID,
			"bookings_cancelled": cancelled,
		})
	} else {
		if err := s.rides.UpdateStatus(ctx, rideID, target); err != nil {
			return nil, err
		}
		s.logger.Info("Ride status updated",
			logger.String("ride_id", rideID.String()),
			logger.String("status", string(target)),
		)
	}

	// Any status past scheduled is unbookable, so the ride leaves the index.
	s.dropOrigin(ctx, rideID)

	return s.rides.GetByID(ctx, rideID)
}

// Delete removes a ride that has never been booked
func (s *Service) Delete(ctx context.Context, driverID, rideID uuid.UUID) error {
	if _, err := s.owned(ctx, driverID, rideID); err != nil {
		return err
	}
	if err := s.rides.Delete(ctx, rideID); err != nil {
		return err
	}
	s.dropOrigin(ctx, rideID)
	s.logger.Info("Ride deleted", logger.String("ride_id", rideID.String()))
	return nil
}

func (s *Service) owned(ctx context.Context, driverID, rideID uuid.UUID) (*ride.Ride, error) {
	rd, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if rd.DriverID != driverID {
		return nil, booking.ErrNotRideDriver
	}
	return rd, nil
}

// indexOrigin keeps the geo index in step with the ride, best-effort
func (s *Service) indexOrigin(ctx context.Context, rd *ride.Ride) {
	if s.redis == nil || rd.Origin.Latitude == 0 && rd.Origin.Longitude == 0 {
		return
	}
	err := s.redis.GeoAdd(ctx, originsKey, &redis.GeoLocation{
		Name:      rd.ID.String(),
		Longitude: rd.Origin.Longitude,
		Latitude:  rd.Origin.Latitude,
	}).Err()
	if err != nil {
		s.logger.Warn("Failed to index ride origin", logger.Err(err))
	}
}

func (s *Service) dropOrigin(ctx context.Context, rideID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.ZRem(ctx, originsKey, rideID.String()).Err(); err != nil {
		s.logger.Warn("Failed to drop ride from geo index", logger.Err(err))
	}
}

// Distance returns the haversine distance in kilometers between two points
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371 // kilometers

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
