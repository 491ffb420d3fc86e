package history

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	dashboard *DriverDashboard
	calls     int
}

func (f *fakeStats) DriverDashboard(ctx context.Context, driverID uuid.UUID) (*DriverDashboard, error) {
	f.calls++
	return f.dashboard, nil
}

type fakeBookings struct {
	booking.Repository // unused methods panic if reached

	byPassenger []*booking.Booking
	totals      *booking.HistoryTotals
}

func (f fakeBookings) ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*booking.Booking, error) {
	return f.byPassenger, nil
}

func (f fakeBookings) HistoryTotals(ctx context.Context, passengerID uuid.UUID) (*booking.HistoryTotals, error) {
	return f.totals, nil
}

func testLogger(t *testing.T) *logger.Logger {
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func TestDriverDashboard_PassesThroughWithoutCache(t *testing.T) {
	stats := &fakeStats{dashboard: &DriverDashboard{
		RidesPosted:    12,
		RidesCompleted: 9,
		BookingsServed: 31,
		SeatsSold:      47,
		TotalEarnings:  5230.0,
		Rating:         4.6,
		ReviewCount:    18,
	}}
	svc := NewService(stats, fakeBookings{}, nil, testLogger(t), 0)

	got, err := svc.DriverDashboard(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, stats.dashboard, got)
	assert.Equal(t, 1, stats.calls)
}

func TestPassengerHistory_SplitsByOutcome(t *testing.T) {
	passengerID := uuid.New()
	mk := func(status booking.Status, fare float64) *booking.Booking {
		return &booking.Booking{
			ID:          uuid.New(),
			PassengerID: passengerID,
			Status:      status,
			TotalFare:   fare,
		}
	}
	bookings := fakeBookings{
		byPassenger: []*booking.Booking{
			mk(booking.StatusCompleted, 200),
			mk(booking.StatusCompleted, 150),
			mk(booking.StatusCancelled, 100),
			mk(booking.StatusRejected, 80),
			mk(booking.StatusConfirmed, 120), // in flight, not history
		},
		totals: &booking.HistoryTotals{CompletedCount: 2, CancelledCount: 2, TotalSpent: 350},
	}
	svc := NewService(&fakeStats{}, bookings, nil, testLogger(t), 0)

	hist, err := svc.PassengerHistory(context.Background(), passengerID)
	require.NoError(t, err)

	assert.Len(t, hist.Completed, 2)
	assert.Len(t, hist.Cancelled, 2)
	assert.Equal(t, 350.0, hist.Totals.TotalSpent)
	assert.Equal(t, 2, hist.Totals.CompletedCount)
}
