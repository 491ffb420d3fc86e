package rides

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/internal/domain/driver"
	"github.com/poolup/ride-sharing/internal/domain/ride"
	"github.com/poolup/ride-sharing/internal/notify"
	"github.com/poolup/ride-sharing/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRideRepo mirrors the Postgres guards in memory: edits bounce off
// confirmed bookings, deletes bounce off any booking, cascade counts the
// force-cancelled bookings.
type fakeRideRepo struct {
	rides map[uuid.UUID]*ride.Ride

	confirmedBookings  map[uuid.UUID]int // rideID -> confirmed-or-later count
	anyBookings        map[uuid.UUID]int // rideID -> bookings of any status
	pendingOrConfirmed map[uuid.UUID]int
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{
		rides:              make(map[uuid.UUID]*ride.Ride),
		confirmedBookings:  make(map[uuid.UUID]int),
		anyBookings:        make(map[uuid.UUID]int),
		pendingOrConfirmed: make(map[uuid.UUID]int),
	}
}

func (f *fakeRideRepo) Create(ctx context.Context, r *ride.Ride) error {
	cp := *r
	f.rides[r.ID] = &cp
	return nil
}

func (f *fakeRideRepo) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	r, ok := f.rides[id]
	if !ok {
		return nil, ride.ErrRideNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRideRepo) List(ctx context.Context, limit, offset int) ([]*ride.Ride, error) {
	var out []*ride.Ride
	for _, r := range f.rides {
		if r.Status == ride.StatusScheduled {
			cp := *r
			out = append(out, &cp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRideRepo) Search(ctx context.Context, filter ride.SearchFilter) ([]*ride.Ride, error) {
	return nil, nil
}

func (f *fakeRideRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*ride.Ride, error) {
	var out []*ride.Ride
	for _, r := range f.rides {
		if r.DriverID == driverID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRideRepo) Update(ctx context.Context, r *ride.Ride) error {
	stored, ok := f.rides[r.ID]
	if !ok {
		return ride.ErrRideNotFound
	}
	if stored.Status != ride.StatusScheduled || f.confirmedBookings[r.ID] > 0 {
		return ride.ErrRideLocked
	}
	reserved := stored.TotalSeats - stored.AvailableSeats
	if r.TotalSeats < reserved {
		return ride.ErrRideLocked
	}
	cp := *r
	cp.AvailableSeats = r.TotalSeats - reserved
	f.rides[r.ID] = &cp
	return nil
}

func (f *fakeRideRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status ride.Status) error {
	r, ok := f.rides[id]
	if !ok {
		return ride.ErrRideNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeRideRepo) CancelWithCascade(ctx context.Context, id uuid.UUID) (int, error) {
	r, ok := f.rides[id]
	if !ok {
		return 0, ride.ErrRideNotFound
	}
	r.Status = ride.StatusCancelled
	cancelled := f.pendingOrConfirmed[id]
	f.pendingOrConfirmed[id] = 0
	return cancelled, nil
}

func (f *fakeRideRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.rides[id]; !ok {
		return ride.ErrRideNotFound
	}
	if f.anyBookings[id] > 0 {
		return ride.ErrRideHasBookings
	}
	delete(f.rides, id)
	return nil
}

type fakeDriverRepo struct {
	profiles map[uuid.UUID]*driver.Profile
}

func (f fakeDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (*driver.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, driver.ErrDriverNotFound
	}
	return p, nil
}

func validInput() RideInput {
	return RideInput{
		Origin: ride.Location{
			Address: "1 Station Rd", City: "Springfield",
			Latitude: 44.0, Longitude: -79.0,
		},
		Destination: ride.Location{
			Address: "9 Harbour St", City: "Shelbyville",
			Latitude: 43.6, Longitude: -79.4,
		},
		DepartureTime: time.Now().Add(48 * time.Hour),
		TotalSeats:    4,
		FarePerSeat:   120.0,
	}
}

func newTestService(t *testing.T) (*Service, *fakeRideRepo, uuid.UUID) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)

	repo := newFakeRideRepo()
	driverID := uuid.New()
	drivers := fakeDriverRepo{profiles: map[uuid.UUID]*driver.Profile{
		driverID: {ID: driverID, Name: "Sam", Approved: true},
	}}

	svc := NewService(repo, drivers, nil, notify.Nop{}, log, Config{})
	return svc, repo, driverID
}

func TestCreate_PostsScheduledRideWithFullInventory(t *testing.T) {
	svc, _, driverID := newTestService(t)

	rd, err := svc.Create(context.Background(), driverID, validInput())
	require.NoError(t, err)

	assert.Equal(t, ride.StatusScheduled, rd.Status)
	assert.Equal(t, 4, rd.TotalSeats)
	assert.Equal(t, 4, rd.AvailableSeats)
	assert.Equal(t, driverID, rd.DriverID)
}

func TestCreate_Gates(t *testing.T) {
	svc, _, driverID := newTestService(t)
	ctx := context.Background()

	t.Run("unknown driver", func(t *testing.T) {
		_, err := svc.Create(ctx, uuid.New(), validInput())
		assert.ErrorIs(t, err, driver.ErrDriverNotFound)
	})

	t.Run("unapproved driver", func(t *testing.T) {
		repo := svc.drivers.(fakeDriverRepo)
		pending := uuid.New()
		repo.profiles[pending] = &driver.Profile{ID: pending, Name: "New", Approved: false}
		_, err := svc.Create(ctx, pending, validInput())
		assert.ErrorIs(t, err, driver.ErrDriverNotApproved)
	})

	t.Run("seat bounds", func(t *testing.T) {
		input := validInput()
		input.TotalSeats = 0
		_, err := svc.Create(ctx, driverID, input)
		assert.ErrorIs(t, err, ride.ErrInvalidSeatCount)

		input.TotalSeats = ride.MaxSeats + 1
		_, err = svc.Create(ctx, driverID, input)
		assert.ErrorIs(t, err, ride.ErrInvalidSeatCount)
	})

	t.Run("departure must be in the future", func(t *testing.T) {
		input := validInput()
		input.DepartureTime = time.Now().Add(-time.Hour)
		_, err := svc.Create(ctx, driverID, input)
		assert.ErrorIs(t, err, ride.ErrDepartureInPast)
	})

	t.Run("negative fare", func(t *testing.T) {
		input := validInput()
		input.FarePerSeat = -5
		_, err := svc.Create(ctx, driverID, input)
		assert.ErrorIs(t, err, ride.ErrInvalidFare)
	})
}

func TestUpdate_OwnershipAndLock(t *testing.T) {
	svc, repo, driverID := newTestService(t)
	ctx := context.Background()

	rd, err := svc.Create(ctx, driverID, validInput())
	require.NoError(t, err)

	t.Run("only the owning driver", func(t *testing.T) {
		_, err := svc.Update(ctx, uuid.New(), rd.ID, validInput())
		assert.ErrorIs(t, err, booking.ErrNotRideDriver)
	})

	t.Run("edits allowed before confirmations", func(t *testing.T) {
		input := validInput()
		input.FarePerSeat = 150
		updated, err := svc.Update(ctx, driverID, rd.ID, input)
		require.NoError(t, err)
		assert.Equal(t, 150.0, updated.FarePerSeat)
	})

	t.Run("locked once a booking is confirmed", func(t *testing.T) {
		repo.confirmedBookings[rd.ID] = 1
		_, err := svc.Update(ctx, driverID, rd.ID, validInput())
		assert.ErrorIs(t, err, ride.ErrRideLocked)
	})
}

func TestUpdateStatus_LifecycleAndCascade(t *testing.T) {
	svc, repo, driverID := newTestService(t)
	ctx := context.Background()

	rd, err := svc.Create(ctx, driverID, validInput())
	require.NoError(t, err)

	t.Run("completed before in-progress is rejected", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, driverID, rd.ID, ride.StatusCompleted)
		assert.ErrorIs(t, err, ride.ErrInvalidStatus)
	})

	t.Run("cancel cascades over open bookings", func(t *testing.T) {
		repo.pendingOrConfirmed[rd.ID] = 2
		cancelled, err := svc.UpdateStatus(ctx, driverID, rd.ID, ride.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, ride.StatusCancelled, cancelled.Status)
		assert.Equal(t, 0, repo.pendingOrConfirmed[rd.ID])
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, driverID, rd.ID, ride.StatusInProgress)
		assert.ErrorIs(t, err, ride.ErrInvalidStatus)
	})
}

func TestUpdateStatus_ForwardChain(t *testing.T) {
	svc, _, driverID := newTestService(t)
	ctx := context.Background()

	rd, err := svc.Create(ctx, driverID, validInput())
	require.NoError(t, err)

	started, err := svc.UpdateStatus(ctx, driverID, rd.ID, ride.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusInProgress, started.Status)

	done, err := svc.UpdateStatus(ctx, driverID, rd.ID, ride.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusCompleted, done.Status)
}

func TestDelete_BlockedByBookings(t *testing.T) {
	svc, repo, driverID := newTestService(t)
	ctx := context.Background()

	rd, err := svc.Create(ctx, driverID, validInput())
	require.NoError(t, err)

	repo.anyBookings[rd.ID] = 1
	err = svc.Delete(ctx, driverID, rd.ID)
	assert.ErrorIs(t, err, ride.ErrRideHasBookings)

	repo.anyBookings[rd.ID] = 0
	require.NoError(t, svc.Delete(ctx, driverID, rd.ID))

	_, err = svc.GetByID(ctx, rd.ID)
	assert.ErrorIs(t, err, ride.ErrRideNotFound)
}

func TestList_ClampsLimit(t *testing.T) {
	svc, _, driverID := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		_, err := svc.Create(ctx, driverID, validInput())
		require.NoError(t, err)
	}

	rides, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, rides, 20)
}

func TestDistance(t *testing.T) {
	// Toronto to Montreal is roughly 504 km
	d := Distance(43.6532, -79.3832, 45.5019, -73.5674)
	assert.InDelta(t, 504, d, 10)
}
