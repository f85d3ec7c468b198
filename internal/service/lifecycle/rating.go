package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/events"
	"github.com/taxiride/ride-hailing/internal/store"
	"github.com/taxiride/ride-hailing/pkg/logger"
)

// RateRide stores the rider's rating of a completed ride and recomputes
// the driver's star rating over all of their rated completed rides
func (m *Manager) RateRide(ctx context.Context, rideID uuid.UUID, rating int, comment string) (r *ride.Ride, err error) {
	defer m.observe("rate_ride", time.Now(), &err)

	if rating < ride.MinRating || rating > ride.MaxRating {
		return nil, toAppError(ride.ErrInvalidRating)
	}

	var stars float64
	r, err = m.mutateRide(ctx, rideID, func(tx store.Store, r *ride.Ride, now time.Time) error {
		if err := r.SetRating(rating, strings.TrimSpace(comment), now); err != nil {
			return err
		}
		if r.DriverID == nil {
			return nil
		}

		d, err := tx.Drivers().GetByID(ctx, *r.DriverID)
		if err != nil {
			return err
		}
		completed, err := tx.Rides().ListByDriverAndStatus(ctx, d.ID, ride.StatusCompleted)
		if err != nil {
			return fmt.Errorf("failed to list completed rides: %w", err)
		}
		// the rated ride is persisted after this function returns
		for i, c := range completed {
			if c.ID == r.ID {
				completed[i] = r
			}
		}

		mean, rated := meanRating(completed)
		if rated > 0 {
			d.StarRating = mean
		}
		d.TotalRides = len(completed)
		d.UpdatedAt = now
		stars = d.StarRating
		if err := tx.Drivers().Update(ctx, d); err != nil {
			return fmt.Errorf("failed to update driver rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}

	m.logger.Info("Ride rated",
		logger.UUID("ride_id", r.ID),
		logger.Int("rating", rating),
		logger.Float64("driver_star_rating", stars),
	)

	ev := events.New(events.TypeRideRated, r.ID, r.UpdatedAt)
	ev.RiderID = r.RiderID
	ev.DriverID = r.DriverID
	ev.Status = string(r.Status)
	ev.Data = map[string]any{"rating": rating, "driver_star_rating": stars}
	m.publish(ctx, ev)
	return r, nil
}

// meanRating averages the ratings of the rated rides and returns how many there were
func meanRating(rides []*ride.Ride) (float64, int) {
	var sum, n int
	for _, r := range rides {
		if r.Rating != nil {
			sum += *r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return float64(sum) / float64(n), n
}
