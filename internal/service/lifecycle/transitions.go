package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/offer"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/events"
	"github.com/taxiride/ride-hailing/internal/service/pricing"
	"github.com/taxiride/ride-hailing/internal/store"
	"github.com/taxiride/ride-hailing/pkg/logger"
)

// AcceptOffer assigns the ride to the driver whose offer the rider picked.
// Sibling offers are deleted and the driver becomes unavailable in the same commit.
func (m *Manager) AcceptOffer(ctx context.Context, rideID, driverID uuid.UUID) (r *ride.Ride, err error) {
	defer m.observe("accept_offer", time.Now(), &err)

	var removed int
	r, err = m.mutateRide(ctx, rideID, func(tx store.Store, r *ride.Ride, now time.Time) error {
		if err := ride.ValidateTransition(r.Status, ride.StatusAccepted); err != nil {
			return err
		}
		o, err := tx.Offers().GetByRideAndDriver(ctx, rideID, driverID)
		if err != nil {
			return err
		}
		if o.IsExpired(now) {
			return offer.ErrOfferExpired
		}
		d, err := m.availableDriver(ctx, tx, driverID)
		if err != nil {
			return err
		}
		removed, err = m.accept(ctx, tx, r, d, o, o.Price, now)
		return err
	})
	if err != nil {
		return nil, toAppError(err)
	}

	m.logger.Info("Offer accepted",
		logger.UUID("ride_id", r.ID),
		logger.UUID("driver_id", driverID),
		logger.Float64("price", r.Price),
		logger.Int("offers_removed", removed),
	)
	m.statusChanged(ctx, r, ride.StatusPending, m.acceptedEvent(r))
	return r, nil
}

// StartTrip is the direct-assignment path: a driver takes a pending ride and picks the rider up.
// On a ride already accepted by the same driver it only records the pickup time.
func (m *Manager) StartTrip(ctx context.Context, rideID, driverID uuid.UUID) (r *ride.Ride, err error) {
	defer m.observe("start_trip", time.Now(), &err)

	var from ride.Status
	r, err = m.mutateRide(ctx, rideID, func(tx store.Store, r *ride.Ride, now time.Time) error {
		from = r.Status
		switch {
		case r.Status == ride.StatusAccepted && r.HasDriver(driverID):
			r.MarkPickedUp(now)
			r.UpdatedAt = now
			return nil
		case r.Status == ride.StatusAccepted:
			return ride.ErrDriverMismatch
		}
		if err := ride.ValidateTransition(r.Status, ride.StatusAccepted); err != nil {
			return err
		}

		d, err := m.availableDriver(ctx, tx, driverID)
		if err != nil {
			return err
		}
		o, err := tx.Offers().GetByRideAndDriver(ctx, rideID, driverID)
		switch {
		case errors.Is(err, offer.ErrOfferNotFound):
			o = nil
		case err != nil:
			return err
		case o.IsExpired(now):
			o = nil
		}

		var price float64
		if o != nil {
			price = o.Price
		} else {
			price, err = m.quoteFor(ctx, r, driverID)
			if err != nil {
				return err
			}
		}

		r.MarkPickedUp(now)
		_, err = m.accept(ctx, tx, r, d, o, price, now)
		return err
	})
	if err != nil {
		return nil, toAppError(err)
	}

	m.logger.Info("Trip started",
		logger.UUID("ride_id", r.ID),
		logger.UUID("driver_id", driverID),
		logger.String("from", string(from)),
	)
	if from != r.Status {
		m.statusChanged(ctx, r, from, m.acceptedEvent(r))
	}
	return r, nil
}

// Completion carries the final trip data of CompleteRide
type Completion struct {
	FinalPrice      float64
	PaymentMethod   string
	DistanceKM      *float64
	DurationMinutes *int
}

// CompleteRide finishes an accepted or in-progress ride and credits the driver
func (m *Manager) CompleteRide(ctx context.Context, rideID uuid.UUID, c Completion) (r *ride.Ride, err error) {
	defer m.observe("complete_ride", time.Now(), &err)

	if c.FinalPrice < 0 {
		return nil, toAppError(ErrInvalidPrice)
	}
	method := strings.TrimSpace(c.PaymentMethod)
	if method == "" {
		return nil, toAppError(ErrPaymentMethodRequired)
	}

	var from ride.Status
	r, err = m.mutateRide(ctx, rideID, func(tx store.Store, r *ride.Ride, now time.Time) error {
		from = r.Status
		if err := r.TransitionTo(ride.StatusCompleted, now); err != nil {
			return err
		}
		r.MarkDroppedOff(now)
		r.Price = c.FinalPrice
		r.IsPaid = true
		r.PaymentMethod = method
		if c.DistanceKM != nil {
			v := *c.DistanceKM
			r.DistanceKM = &v
		}
		if c.DurationMinutes != nil {
			v := *c.DurationMinutes
			r.DurationMinutes = &v
		}
		return m.creditDriver(ctx, tx, r, now)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	m.completed(ctx, r, from)
	return r, nil
}

// CancelRide cancels a pending or accepted ride and frees the assigned driver
func (m *Manager) CancelRide(ctx context.Context, rideID uuid.UUID) (r *ride.Ride, err error) {
	defer m.observe("cancel_ride", time.Now(), &err)

	var from ride.Status
	r, err = m.mutateRide(ctx, rideID, func(tx store.Store, r *ride.Ride, now time.Time) error {
		from = r.Status
		return m.cancel(ctx, tx, r, now)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	m.cancelled(ctx, r, from)
	return r, nil
}

// UpdateStatus is the generic transition entry point for in_progress, completed and cancelled
func (m *Manager) UpdateStatus(ctx context.Context, rideID uuid.UUID, status string) (r *ride.Ride, err error) {
	defer m.observe("update_status", time.Now(), &err)

	target, err := ride.ParseStatus(status)
	if err != nil {
		return nil, toAppError(err)
	}
	switch target {
	case ride.StatusInProgress, ride.StatusCompleted, ride.StatusCancelled:
	default:
		return nil, toAppError(fmt.Errorf("%w: %s", ErrStatusNotSettable, target))
	}

	var from ride.Status
	r, err = m.mutateRide(ctx, rideID, func(tx store.Store, r *ride.Ride, now time.Time) error {
		from = r.Status
		switch target {
		case ride.StatusCancelled:
			return m.cancel(ctx, tx, r, now)
		case ride.StatusCompleted:
			if err := r.TransitionTo(ride.StatusCompleted, now); err != nil {
				return err
			}
			r.MarkDroppedOff(now)
			return m.creditDriver(ctx, tx, r, now)
		default:
			if err := r.TransitionTo(target, now); err != nil {
				return err
			}
			r.MarkPickedUp(now)
			return nil
		}
	})
	if err != nil {
		return nil, toAppError(err)
	}

	switch target {
	case ride.StatusCancelled:
		m.cancelled(ctx, r, from)
	case ride.StatusCompleted:
		m.completed(ctx, r, from)
	default:
		m.statusChanged(ctx, r, from)
	}
	return r, nil
}

// accept is the acceptance core shared by AcceptOffer and StartTrip.
// It returns the number of sibling offers deleted.
func (m *Manager) accept(ctx context.Context, tx store.Store, r *ride.Ride, d *driver.Driver, o *offer.Offer, price float64, now time.Time) (int, error) {
	if err := r.AssignDriver(d.ID, price, now); err != nil {
		return 0, err
	}
	if o != nil {
		o.IsAccepted = true
		if err := tx.Offers().Update(ctx, o); err != nil {
			return 0, fmt.Errorf("failed to mark offer accepted: %w", err)
		}
	}

	keep := uuid.Nil
	if o != nil {
		keep = d.ID
	}
	removed, err := tx.Offers().DeleteByRideExcept(ctx, r.ID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sibling offers: %w", err)
	}

	d.Engage(now)
	if err := tx.Drivers().Update(ctx, d); err != nil {
		return 0, fmt.Errorf("failed to update driver: %w", err)
	}
	return removed, nil
}

func (m *Manager) availableDriver(ctx context.Context, tx store.Store, driverID uuid.UUID) (*driver.Driver, error) {
	d, err := tx.Drivers().GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !d.CanAcceptRides() {
		return nil, driver.ErrDriverNotAvailable
	}
	return d, nil
}

// quoteFor prices a ride for a driver who has no offer on it
func (m *Manager) quoteFor(ctx context.Context, r *ride.Ride, driverID uuid.UUID) (float64, error) {
	vehicle, err := m.directory.GetVehicle(ctx, driverID)
	if err != nil {
		return 0, err
	}
	q, err := m.pricing.Quote(ctx, pricing.Trip{
		Pickup:      r.PickupAddress,
		Dropoff:     r.DropoffAddress,
		VehicleType: vehicle.Type,
		DriverID:    driverID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to price ride: %w", err)
	}
	return q.Price, nil
}

func (m *Manager) cancel(ctx context.Context, tx store.Store, r *ride.Ride, now time.Time) error {
	from := r.Status
	if err := r.TransitionTo(ride.StatusCancelled, now); err != nil {
		return err
	}
	if from == ride.StatusPending {
		if _, err := tx.Offers().DeleteByRideExcept(ctx, r.ID, uuid.Nil); err != nil {
			return fmt.Errorf("failed to delete offers: %w", err)
		}
	}
	if r.DriverID == nil {
		return nil
	}
	d, err := tx.Drivers().GetByID(ctx, *r.DriverID)
	if err != nil {
		return err
	}
	d.Release(now)
	if err := tx.Drivers().Update(ctx, d); err != nil {
		return fmt.Errorf("failed to release driver: %w", err)
	}
	return nil
}

// creditDriver applies the completion side effects to the assigned driver
func (m *Manager) creditDriver(ctx context.Context, tx store.Store, r *ride.Ride, now time.Time) error {
	if r.DriverID == nil {
		return nil
	}
	d, err := tx.Drivers().GetByID(ctx, *r.DriverID)
	if err != nil {
		return err
	}
	d.RecordCompletedRide(r.Price, now)
	if err := tx.Drivers().Update(ctx, d); err != nil {
		return fmt.Errorf("failed to update driver: %w", err)
	}
	return nil
}

func (m *Manager) acceptedEvent(r *ride.Ride) events.Event {
	ev := events.New(events.TypeOfferAccepted, r.ID, r.UpdatedAt)
	ev.RiderID = r.RiderID
	ev.DriverID = r.DriverID
	ev.Status = string(r.Status)
	ev.Price = r.Price
	return ev
}

func (m *Manager) completed(ctx context.Context, r *ride.Ride, from ride.Status) {
	var distance float64
	if r.DistanceKM != nil {
		distance = *r.DistanceKM
	}
	var duration int
	if r.DurationMinutes != nil {
		duration = *r.DurationMinutes
	}
	m.metrics.RideCompleted(r.ID.String(), r.Price, distance, duration)
	m.logger.Info("Ride completed",
		logger.UUID("ride_id", r.ID),
		logger.Float64("fare", r.Price),
		logger.String("payment_method", r.PaymentMethod),
	)

	ev := events.New(events.TypeRideCompleted, r.ID, r.UpdatedAt)
	ev.RiderID = r.RiderID
	ev.DriverID = r.DriverID
	ev.Status = string(r.Status)
	ev.Price = r.Price
	m.statusChanged(ctx, r, from, ev)
}

func (m *Manager) cancelled(ctx context.Context, r *ride.Ride, from ride.Status) {
	m.logger.Info("Ride cancelled",
		logger.UUID("ride_id", r.ID),
		logger.String("from", string(from)),
	)

	ev := events.New(events.TypeRideCancelled, r.ID, r.UpdatedAt)
	ev.RiderID = r.RiderID
	ev.DriverID = r.DriverID
	ev.Status = string(r.Status)
	m.statusChanged(ctx, r, from, ev)
}
