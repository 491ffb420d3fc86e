package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/internal/domain/ride"
	"github.com/poolup/ride-sharing/internal/notify"
	"github.com/poolup/ride-sharing/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the Postgres repositories that
// mirrors their guard semantics: every check-and-mutate runs under one lock,
// the way the SQL versions run under row locks.
type memStore struct {
	mu       sync.Mutex
	rides    map[uuid.UUID]*ride.Ride
	bookings map[uuid.UUID]*booking.Booking

	// driver credit ledger, to assert exactly-once completion effects
	creditedRides    map[uuid.UUID]int
	creditedEarnings map[uuid.UUID]float64
}

func newMemStore() *memStore {
	return &memStore{
		rides:            make(map[uuid.UUID]*ride.Ride),
		bookings:         make(map[uuid.UUID]*booking.Booking),
		creditedRides:    make(map[uuid.UUID]int),
		creditedEarnings: make(map[uuid.UUID]float64),
	}
}

// ride.Repository

func (m *memStore) Create(ctx context.Context, r *ride.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rides[r.ID] = &cp
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ride.ErrRideNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) List(ctx context.Context, limit, offset int) ([]*ride.Ride, error) {
	return nil, nil
}

func (m *memStore) Search(ctx context.Context, f ride.SearchFilter) ([]*ride.Ride, error) {
	return nil, nil
}

func (m *memStore) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*ride.Ride, error) {
	return nil, nil
}

func (m *memStore) Update(ctx context.Context, r *ride.Ride) error { return nil }

func (m *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, status ride.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return ride.ErrRideNotFound
	}
	r.Status = status
	return nil
}

func (m *memStore) CancelWithCascade(ctx context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return 0, ride.ErrRideNotFound
	}
	r.Status = ride.StatusCancelled
	cancelled := 0
	for _, b := range m.bookings {
		if b.RideID == id && (b.Status == booking.StatusPending || b.Status == booking.StatusConfirmed) {
			by := booking.CancelledByDriver
			b.Status = booking.StatusCancelled
			b.CancelledBy = &by
			cancelled++
		}
	}
	return cancelled, nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }

// booking.Repository

func (m *memStore) CreateWithReservation(ctx context.Context, b *booking.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rides[b.RideID]
	if !ok {
		return ride.ErrRideNotFound
	}
	if r.Status != ride.StatusScheduled {
		return ride.ErrRideNotBookable
	}
	for _, existing := range m.bookings {
		if existing.RideID == b.RideID && existing.PassengerID == b.PassengerID && existing.Status.HoldsSeats() {
			return booking.ErrAlreadyBooked
		}
	}
	if r.AvailableSeats < b.SeatsBooked {
		return ride.ErrInsufficientSeats
	}

	r.AvailableSeats -= b.SeatsBooked
	b.TotalFare = booking.SnapshotFare(b.SeatsBooked, r.FarePerSeat)
	b.CreatedAt = time.Now()
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) Transition(ctx context.Context, id uuid.UUID, from, to booking.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if b.Status != from {
		return booking.ErrTransitionConflict
	}
	b.Status = to
	return nil
}

func (m *memStore) CancelWithRelease(ctx context.Context, id uuid.UUID, from booking.Status, by booking.CancelActor, reason string) error {
	return m.release(id, from, booking.StatusCancelled, &by, reason)
}

func (m *memStore) RejectWithRelease(ctx context.Context, id uuid.UUID) error {
	return m.release(id, booking.StatusPending, booking.StatusRejected, nil, "")
}

func (m *memStore) release(id uuid.UUID, from, to booking.Status, by *booking.CancelActor, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if b.Status != from {
		return booking.ErrTransitionConflict
	}
	b.Status = to
	b.CancelledBy = by
	b.CancelReason = reason
	if r, ok := m.rides[b.RideID]; ok {
		r.AvailableSeats += b.SeatsBooked
	}
	return nil
}

func (m *memStore) Complete(ctx context.Context, id uuid.UUID, driverID uuid.UUID, fare float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if b.Status != booking.StatusDroppedOff {
		return booking.ErrTransitionConflict
	}
	b.Status = booking.StatusCompleted
	b.PaymentStatus = booking.PaymentPaid
	m.creditedRides[driverID]++
	m.creditedEarnings[driverID] += fare
	return nil
}

func (m *memStore) ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*booking.Booking
	for _, b := range m.bookings {
		if b.PassengerID == passengerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListActiveByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*booking.Booking
	for _, b := range m.bookings {
		if b.PassengerID == passengerID && !b.Status.IsTerminal() {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*booking.Booking
	for _, b := range m.bookings {
		if b.RideID == rideID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) CountConfirmedOrLater(ctx context.Context, rideID uuid.UUID) (int, error) {
	return 0, nil
}

func (m *memStore) HistoryTotals(ctx context.Context, passengerID uuid.UUID) (*booking.HistoryTotals, error) {
	return &booking.HistoryTotals{}, nil
}

func (m *memStore) getBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

// bookingRepo adapts memStore to booking.Repository (both repositories share
// the store so seat accounting crosses them like it does in Postgres)
type bookingRepo struct{ *memStore }

func (r bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.getBooking(ctx, id)
}

func testLogger(t *testing.T) *logger.Logger {
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func newTestService(t *testing.T) (*Service, *memStore) {
	store := newMemStore()
	svc := NewService(bookingRepo{store}, store, notify.Nop{}, testLogger(t))
	return svc, store
}

func seedRide(store *memStore, driverID uuid.UUID, seats int, fare float64) *ride.Ride {
	r := &ride.Ride{
		ID:             uuid.New(),
		DriverID:       driverID,
		TotalSeats:     seats,
		AvailableSeats: seats,
		FarePerSeat:    fare,
		Status:         ride.StatusScheduled,
		DepartureTime:  time.Now().Add(24 * time.Hour),
	}
	store.Create(context.Background(), r)
	return r
}

func TestCreate_ReservesSeatsAndSnapshotsFare(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	passengerID := uuid.New()
	r := seedRide(store, driverID, 4, 150.0)

	b, err := svc.Create(ctx, passengerID, r.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, booking.PaymentPending, b.PaymentStatus)
	assert.Equal(t, 450.0, b.TotalFare)

	updated, _ := store.GetByID(ctx, r.ID)
	assert.Equal(t, 1, updated.AvailableSeats)
}

func TestCreate_Preconditions(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	passengerID := uuid.New()
	r := seedRide(store, driverID, 2, 100.0)

	t.Run("driver cannot book own ride", func(t *testing.T) {
		_, err := svc.Create(ctx, driverID, r.ID, 1)
		assert.ErrorIs(t, err, booking.ErrOwnRide)
	})

	t.Run("zero seats rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, passengerID, r.ID, 0)
		assert.ErrorIs(t, err, booking.ErrInvalidSeats)
	})

	t.Run("unknown ride", func(t *testing.T) {
		_, err := svc.Create(ctx, passengerID, uuid.New(), 1)
		assert.ErrorIs(t, err, ride.ErrRideNotFound)
	})

	t.Run("duplicate active booking on same ride", func(t *testing.T) {
		_, err := svc.Create(ctx, passengerID, r.ID, 1)
		require.NoError(t, err)
		_, err = svc.Create(ctx, passengerID, r.ID, 1)
		assert.ErrorIs(t, err, booking.ErrAlreadyBooked)
	})

	t.Run("not bookable once cancelled", func(t *testing.T) {
		store.UpdateStatus(ctx, r.ID, ride.StatusCancelled)
		_, err := svc.Create(ctx, uuid.New(), r.ID, 1)
		assert.ErrorIs(t, err, ride.ErrRideNotBookable)
	})
}

// TestSeatInventory_OverbookAndReject walks the seat accounting scenario:
// 4 seats, book 3, a 2-seat request bounces, rejection restores all 4.
func TestSeatInventory_OverbookAndReject(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	r := seedRide(store, driverID, 4, 100.0)

	bookingA, err := svc.Create(ctx, uuid.New(), r.ID, 3)
	require.NoError(t, err)

	current, _ := store.GetByID(ctx, r.ID)
	assert.Equal(t, 1, current.AvailableSeats)

	_, err = svc.Create(ctx, uuid.New(), r.ID, 2)
	assert.ErrorIs(t, err, ride.ErrInsufficientSeats)

	current, _ = store.GetByID(ctx, r.ID)
	assert.Equal(t, 1, current.AvailableSeats, "failed booking must not touch inventory")

	_, err = svc.Respond(ctx, driverID, bookingA.ID, false)
	require.NoError(t, err)

	current, _ = store.GetByID(ctx, r.ID)
	assert.Equal(t, 4, current.AvailableSeats, "rejection must restore all reserved seats")
}

func TestRespond_OnlyRideDriver(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	r := seedRide(store, driverID, 4, 100.0)

	b, err := svc.Create(ctx, uuid.New(), r.ID, 1)
	require.NoError(t, err)

	_, err = svc.Respond(ctx, uuid.New(), b.ID, true)
	assert.ErrorIs(t, err, booking.ErrNotRideDriver)

	confirmed, err := svc.Respond(ctx, driverID, b.ID, true)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, confirmed.Status)

	// A second response finds the pending gate closed
	_, err = svc.Respond(ctx, driverID, b.ID, false)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestCancel_PassengerOnlyAndReleases(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	passengerID := uuid.New()
	r := seedRide(store, driverID, 4, 100.0)

	b, err := svc.Create(ctx, passengerID, r.ID, 2)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, uuid.New(), b.ID, "someone else")
	assert.ErrorIs(t, err, booking.ErrNotBookingPassenger)

	cancelled, err := svc.Cancel(ctx, passengerID, b.ID, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, booking.CancelledByPassenger, *cancelled.CancelledBy)

	current, _ := store.GetByID(ctx, r.ID)
	assert.Equal(t, 4, current.AvailableSeats)

	// Cancelling again is an invalid transition, not a second release
	_, err = svc.Cancel(ctx, passengerID, b.ID, "again")
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
	current, _ = store.GetByID(ctx, r.ID)
	assert.Equal(t, 4, current.AvailableSeats)
}

func TestUpdateStatus_FullChain(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	r := seedRide(store, driverID, 4, 120.0)

	b, err := svc.Create(ctx, uuid.New(), r.ID, 2)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, driverID, b.ID, true)
	require.NoError(t, err)

	chain := []booking.Status{
		booking.StatusComingForPickup,
		booking.StatusPickedUp,
		booking.StatusInTransit,
		booking.StatusDroppedOff,
		booking.StatusCompleted,
	}
	for _, target := range chain {
		updated, err := svc.UpdateStatus(ctx, driverID, b.ID, target)
		require.NoError(t, err, "transition to %s", target)
		assert.Equal(t, target, updated.Status)
	}

	final, err := store.getBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentPaid, final.PaymentStatus)
	assert.Equal(t, 1, store.creditedRides[driverID])
	assert.Equal(t, 240.0, store.creditedEarnings[driverID])
}

func TestUpdateStatus_RejectsSkips(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	r := seedRide(store, driverID, 4, 100.0)

	b, err := svc.Create(ctx, uuid.New(), r.ID, 1)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, driverID, b.ID, true)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, driverID, b.ID, booking.StatusPickedUp)
	require.ErrorIs(t, err, booking.ErrInvalidTransition)

	var te *booking.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, booking.StatusConfirmed, te.Current)
	assert.Contains(t, te.Current.AllowedNext(), booking.StatusComingForPickup)

	unchanged, _ := store.getBooking(ctx, b.ID)
	assert.Equal(t, booking.StatusConfirmed, unchanged.Status)
}

func TestUpdateStatus_CompletionIsExactlyOnce(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	r := seedRide(store, driverID, 4, 100.0)

	b, err := svc.Create(ctx, uuid.New(), r.ID, 2)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, driverID, b.ID, true)
	require.NoError(t, err)
	for _, target := range []booking.Status{
		booking.StatusComingForPickup, booking.StatusPickedUp,
		booking.StatusInTransit, booking.StatusDroppedOff, booking.StatusCompleted,
	} {
		_, err = svc.UpdateStatus(ctx, driverID, b.ID, target)
		require.NoError(t, err)
	}

	_, err = svc.UpdateStatus(ctx, driverID, b.ID, booking.StatusCompleted)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)

	assert.Equal(t, 1, store.creditedRides[driverID], "driver must be credited exactly once")
	assert.Equal(t, 200.0, store.creditedEarnings[driverID])
}

// TestConcurrentRespondAndCancel races a driver confirmation against a
// passenger cancellation on the same pending booking: exactly one side wins
// and the loser gets an invalid-transition rejection.
func TestConcurrentRespondAndCancel(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	passengerID := uuid.New()
	r := seedRide(store, driverID, 4, 100.0)

	b, err := svc.Create(ctx, passengerID, r.ID, 2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.Respond(ctx, driverID, b.ID, true)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.Cancel(ctx, passengerID, b.ID, "racing")
	}()
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			lost := errors.Is(err, booking.ErrInvalidTransition) || errors.Is(err, booking.ErrTransitionConflict)
			assert.True(t, lost, "loser must get a transition rejection, got %v", err)
		}
	}
	assert.Equal(t, 1, winners, "exactly one transition must win")

	final, _ := store.getBooking(ctx, b.ID)
	current, _ := store.GetByID(ctx, r.ID)
	if final.Status == booking.StatusCancelled {
		assert.Equal(t, 4, current.AvailableSeats)
	} else {
		assert.Equal(t, booking.StatusConfirmed, final.Status)
		assert.Equal(t, 2, current.AvailableSeats)
	}
}

// TestConcurrentCreates_NoOverselling hammers the last seats from many
// goroutines and checks the inventory invariant held throughout.
func TestConcurrentCreates_NoOverselling(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	r := seedRide(store, driverID, 4, 100.0)

	var wg sync.WaitGroup
	results := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Create(ctx, uuid.New(), r.ID, 2)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 2, succeeded, "only two 2-seat bookings fit in 4 seats")

	current, _ := store.GetByID(ctx, r.ID)
	assert.Equal(t, 0, current.AvailableSeats)
}

func TestGetByID_ParticipantsOnly(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	passengerID := uuid.New()
	r := seedRide(store, driverID, 4, 100.0)

	b, err := svc.Create(ctx, passengerID, r.ID, 1)
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, passengerID, b.ID)
	assert.NoError(t, err)
	_, err = svc.GetByID(ctx, driverID, b.ID)
	assert.NoError(t, err)
	_, err = svc.GetByID(ctx, uuid.New(), b.ID)
	assert.ErrorIs(t, err, booking.ErrNotParticipant)
}
