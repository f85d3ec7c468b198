package monitoring

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// NewRelicApp wraps the New Relic application. A disabled app accepts every
// call and records nothing.
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
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

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.Shutdown(timeout)
}

// RecordRideRequested records a ride request and how many offers it produced
func (nr *NewRelicApp) RecordRideRequested(vehicleType string, offers int, hasDrivers bool) {
	nr.RecordCustomEvent("RideRequested", map[string]interface{}{
		"vehicle_type": vehicleType,
		"offers":       offers,
		"has_drivers":  hasDrivers,
	})
}

// RecordStatusChange records a committed ride transition
func (nr *NewRelicApp) RecordStatusChange(rideID, from, to string) {
	nr.RecordCustomEvent("RideStatusChanged", map[string]interface{}{
		"ride_id": rideID,
		"from":    from,
		"to":      to,
	})
}

// RecordRideCompleted records ride completion
func (nr *NewRelicApp) RecordRideCompleted(rideID string, fare float64, distance float64, duration int) {
	nr.RecordCustomEvent("RideCompleted", map[string]interface{}{
		"ride_id":  rideID,
		"fare":     fare,
		"distance": distance,
		"duration": duration,
	})
}

// RecordOperationLatency records how long a lifecycle operation took
func (nr *NewRelicApp) RecordOperationLatency(operation string, d time.Duration) {
	nr.RecordCustomMetric("custom/lifecycle/"+operation+"_ms", float64(d.Milliseconds()))
}

// RecordDatabasePoolStats records database connection pool statistics
func (nr *NewRelicApp) RecordDatabasePoolStats(stats sql.DBStats) {
	nr.RecordCustomMetric("custom/db/open_connections", float64(stats.OpenConnections))
	nr.RecordCustomMetric("custom/db/idle_connections", float64(stats.Idle))
	nr.RecordCustomMetric("custom/db/in_use_connections", float64(stats.InUse))
}

// RecordRedisPoolStats records Redis pool statistics
func (nr *NewRelicApp) RecordRedisPoolStats(stats *redis.PoolStats) {
	if stats == nil {
		return
	}
	nr.RecordCustomMetric("custom/redis/cache_hits", float64(stats.Hits))
	nr.RecordCustomMetric("custom/redis/cache_misses", float64(stats.Misses))
	nr.RecordCustomMetric("custom/redis/timeouts", float64(stats.Timeouts))
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr != nil && nr.enabled && nr.Application != nil
}
