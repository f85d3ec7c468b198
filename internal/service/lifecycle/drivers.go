package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/events"
	"github.com/taxiride/ride-hailing/internal/store"
	"github.com/taxiride/ride-hailing/pkg/logger"
)

// DriverStats summarises a driver's finished rides
type DriverStats struct {
	DriverID        uuid.UUID `json:"driver_id"`
	CompletedRides  int       `json:"completed_rides"`
	CancelledRides  int       `json:"cancelled_rides"`
	TotalRides      int       `json:"total_rides"`
	TotalEarnings   float64   `json:"total_earnings"`
	AverageRating   float64   `json:"average_rating"`
	RatingCount     int       `json:"rating_count"`
	StarRating      float64   `json:"star_rating"`
	IsAvailable     bool      `json:"is_available"`
	ActiveRideCount int       `json:"active_ride_count"`
}

func driverLockKey(id uuid.UUID) string {
	return "driver:" + id.String()
}

// SetDriverAvailability toggles whether the driver receives offers.
// A driver holding an accepted or in-progress ride cannot become available.
func (m *Manager) SetDriverAvailability(ctx context.Context, driverID uuid.UUID, available bool, location *driver.Location) (d *driver.Driver, err error) {
	defer m.observe("set_driver_availability", time.Now(), &err)

	d, err = m.mutateDriver(ctx, driverID, func(tx store.Store, d *driver.Driver, now time.Time) error {
		if available {
			active, err := tx.Rides().ListByDriverAndStatus(ctx, driverID, ride.StatusAccepted, ride.StatusInProgress)
			if err != nil {
				return fmt.Errorf("failed to list active rides: %w", err)
			}
			if len(active) > 0 {
				return fmt.Errorf("%w: %s", driver.ErrDriverHasActiveRide, active[0].ID)
			}
		}
		if location != nil {
			if err := d.SetLocation(location.Latitude, location.Longitude, now); err != nil {
				return err
			}
		}
		d.IsAvailable = available
		d.LastActiveAt = now
		d.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}

	m.logger.Info("Driver availability changed",
		logger.UUID("driver_id", d.ID),
		logger.Bool("available", d.IsAvailable),
	)
	ev := events.New(events.TypeDriverAvailability, uuid.Nil, d.UpdatedAt)
	ev.DriverID = &d.ID
	ev.Data = map[string]any{"available": d.IsAvailable}
	m.publish(ctx, ev)
	return d, nil
}

// UpdateDriverLocation records the driver's current position
func (m *Manager) UpdateDriverLocation(ctx context.Context, driverID uuid.UUID, lat, lng float64) (d *driver.Driver, err error) {
	defer m.observe("update_driver_location", time.Now(), &err)

	d, err = m.mutateDriver(ctx, driverID, func(_ store.Store, d *driver.Driver, now time.Time) error {
		return d.SetLocation(lat, lng, now)
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return d, nil
}

// DriverStats counts completed and cancelled rides, paid earnings and ratings
func (m *Manager) DriverStats(ctx context.Context, driverID uuid.UUID) (stats *DriverStats, err error) {
	defer m.observe("driver_stats", time.Now(), &err)

	d, err := m.store.Drivers().GetByID(ctx, driverID)
	if err != nil {
		return nil, toAppError(err)
	}
	completed, err := m.store.Rides().ListByDriverAndStatus(ctx, driverID, ride.StatusCompleted)
	if err != nil {
		return nil, toAppError(err)
	}
	cancelled, err := m.store.Rides().ListByDriverAndStatus(ctx, driverID, ride.StatusCancelled)
	if err != nil {
		return nil, toAppError(err)
	}
	active, err := m.store.Rides().ListByDriverAndStatus(ctx, driverID, ride.StatusAccepted, ride.StatusInProgress)
	if err != nil {
		return nil, toAppError(err)
	}

	stats = &DriverStats{
		DriverID:        driverID,
		CompletedRides:  len(completed),
		CancelledRides:  len(cancelled),
		TotalRides:      len(completed) + len(cancelled),
		StarRating:      d.StarRating,
		IsAvailable:     d.IsAvailable,
		ActiveRideCount: len(active),
	}
	for _, r := range completed {
		if r.IsPaid {
			stats.TotalEarnings += r.Price
		}
	}
	stats.AverageRating, stats.RatingCount = meanRating(completed)
	return stats, nil
}

// DriverActiveRides lists the driver's accepted and in-progress rides by order time
func (m *Manager) DriverActiveRides(ctx context.Context, driverID uuid.UUID) (rides []*ride.Ride, err error) {
	defer m.observe("driver_active_rides", time.Now(), &err)

	if _, err := m.store.Drivers().GetByID(ctx, driverID); err != nil {
		return nil, toAppError(err)
	}
	rides, err = m.store.Rides().ListByDriverAndStatus(ctx, driverID, ride.StatusAccepted, ride.StatusInProgress)
	if err != nil {
		return nil, toAppError(err)
	}
	return rides, nil
}

func (m *Manager) mutateDriver(ctx context.Context, driverID uuid.UUID, fn func(tx store.Store, d *driver.Driver, now time.Time) error) (*driver.Driver, error) {
	release, err := m.locker.Acquire(ctx, driverLockKey(driverID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock driver: %w", err)
	}
	defer release()

	var out *driver.Driver
	err = m.store.WithinTx(ctx, func(tx store.Store) error {
		d, err := tx.Drivers().GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		if err := fn(tx, d, m.now()); err != nil {
			return err
		}
		if err := tx.Drivers().Update(ctx, d); err != nil {
			return fmt.Errorf("failed to update driver: %w", err)
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
