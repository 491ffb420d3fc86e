package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// NewRelicApp wraps the New Relic application
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		// Return disabled app
		return &NewRelicApp{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// StartTransaction starts a new transaction
func (nr *NewRelicApp) StartTransaction(name string) *newrelic.Transaction {
	if !nr.enabled || nr.Application == nil {
		return nil
	}
	return nr.Application.StartTransaction(name)
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.Shutdown(timeout)
}

// Custom metric helpers

// RecordRideCreated records a posted ride
func (nr *NewRelicApp) RecordRideCreated(totalSeats int, farePerSeat float64) {
	nr.RecordCustomEvent("RideCreated", map[string]interface{}{
		"total_seats":   totalSeats,
		"fare_per_seat": farePerSeat,
		"timestamp":     time.Now().Unix(),
	})
}

// RecordBookingCreated records a seat reservation
func (nr *NewRelicApp) RecordBookingCreated(seats int, totalFare float64) {
	nr.RecordCustomEvent("BookingCreated", map[string]interface{}{
		"seats":      seats,
		"total_fare": totalFare,
	})
}

// RecordBookingCompleted records a completed booking with its credited fare
func (nr *NewRelicApp) RecordBookingCompleted(bookingID string, fare float64) {
	nr.RecordCustomEvent("BookingCompleted", map[string]interface{}{
		"booking_id": bookingID,
		"fare":       fare,
	})
}

// RecordRideCancelled records a driver cancellation and its cascade size
func (nr *NewRelicApp) RecordRideCancelled(rideID string, bookingsCancelled int) {
	nr.RecordCustomEvent("RideCancelled", map[string]interface{}{
		"ride_id":            rideID,
		"bookings_cancelled": bookingsCancelled,
	})
}

// RecordDriverRating records a recomputed driver rating
func (nr *NewRelicApp) RecordDriverRating(driverID string, rating float64) {
	nr.RecordCustomMetric(fmt.Sprintf("custom/driver/rating/%s", driverID), rating)
}

// RecordDatabasePoolStats records database connection pool statistics
func (nr *NewRelicApp) RecordDatabasePoolStats(stats map[string]interface{}) {
	if totalConns, ok := stats["total_connections"].(int32); ok {
		nr.RecordCustomMetric("custom/db/total_connections", float64(totalConns))
	}
	if idleConns, ok := stats["idle_connections"].(int32); ok {
		nr.RecordCustomMetric("custom/db/idle_connections", float64(idleConns))
	}
	if acquiredConns, ok := stats["acquired_connections"].(int32); ok {
		nr.RecordCustomMetric("custom/db/acquired_connections", float64(acquiredConns))
	}
}

// RecordRedisPoolStats records Redis pool statistics
func (nr *NewRelicApp) RecordRedisPoolStats(stats map[string]interface{}) {
	if hits, ok := stats["hits"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/cache_hits", float64(hits))
	}
	if misses, ok := stats["misses"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/cache_misses", float64(misses))
	}
	if timeouts, ok := stats["timeouts"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/timeouts", float64(timeouts))
	}
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr.enabled
}
