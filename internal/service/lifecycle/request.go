package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/offer"
	"github.com/taxiride/ride-hailing/internal/domain/reservation"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/events"
	"github.com/taxiride/ride-hailing/internal/service/directory"
	"github.com/taxiride/ride-hailing/internal/service/pricing"
	"github.com/taxiride/ride-hailing/internal/store"
	"github.com/taxiride/ride-hailing/pkg/logger"
)

// RideRequest is the input of RequestRide
type RideRequest struct {
	RiderID     uuid.UUID
	Pickup      string
	Dropoff     string
	VehicleType string // optional preference
}

// RequestResult is what a rider gets back after requesting a ride
type RequestResult struct {
	RideID     uuid.UUID      `json:"ride_id"`
	Status     ride.Status    `json:"status"`
	HasDrivers bool           `json:"has_drivers"`
	Offers     []*offer.Offer `json:"offers"`
}

// RequestRide creates a ride and one competing offer per available driver.
// Without drivers the ride is stored as no_drivers_available and no offers exist.
func (m *Manager) RequestRide(ctx context.Context, req RideRequest) (result *RequestResult, err error) {
	defer m.observe("request_ride", time.Now(), &err)
	result, err = m.requestRide(ctx, req)
	return result, toAppError(err)
}

func (m *Manager) requestRide(ctx context.Context, req RideRequest) (*RequestResult, error) {
	pickup := strings.TrimSpace(req.Pickup)
	dropoff := strings.TrimSpace(req.Dropoff)
	if pickup == "" {
		return nil, ride.ErrEmptyPickupAddress
	}
	if dropoff == "" {
		return nil, ride.ErrEmptyDropoff
	}
	vehicleType, err := driver.ParseVehicleType(req.VehicleType)
	if err != nil {
		return nil, err
	}
	if _, err := m.store.Riders().GetByID(ctx, req.RiderID); err != nil {
		return nil, err
	}

	now := m.now()
	r := ride.New(req.RiderID, pickup, dropoff, now)
	r.VehicleType = string(vehicleType)

	driversHint := true
	if m.geocoder != nil {
		geo := m.geocoder.Validate(ctx, pickup)
		if !geo.Valid {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, geo.Reason)
		}
		lat, lon := geo.Latitude, geo.Longitude
		r.PickupLatitude = &lat
		r.PickupLongitude = &lon
		driversHint = geo.HasAvailableDrivers
	}

	var candidates []directory.Candidate
	if driversHint {
		var filter *driver.VehicleType
		if vehicleType != "" {
			filter = &vehicleType
		}
		candidates, err = m.directory.ListAvailableDrivers(ctx, filter)
		if err != nil {
			return nil, err
		}
	}

	offers := make([]*offer.Offer, 0, len(candidates))
	for _, c := range candidates {
		q, err := m.pricing.Quote(ctx, pricing.Trip{
			Pickup:      pickup,
			Dropoff:     dropoff,
			VehicleType: c.VehicleType,
			DriverID:    c.DriverID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to price offer for driver %s: %w", c.DriverID, err)
		}
		o := &offer.Offer{
			ID:            uuid.New(),
			RideID:        r.ID,
			DriverID:      c.DriverID,
			DriverName:    c.Name,
			Price:         q.Price,
			EstimatedTime: q.ETAMinutes,
			VehicleType:   c.VehicleType,
			DriverRating:  c.Rating,
			CompanyID:     c.CompanyID,
			CreatedAt:     now,
		}
		if m.offerTTL > 0 {
			expires := now.Add(m.offerTTL)
			o.ExpiresAt = &expires
		}
		offers = append(offers, o)
	}

	if len(offers) == 0 {
		r.Status = ride.StatusNoDriversAvailable
	}

	err = m.store.WithinTx(ctx, func(tx store.Store) error {
		if err := tx.Rides().Create(ctx, r); err != nil {
			return fmt.Errorf("failed to create ride: %w", err)
		}
		if len(offers) > 0 {
			if err := tx.Offers().CreateBatch(ctx, offers); err != nil {
				return fmt.Errorf("failed to create offers: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	hasDrivers := len(offers) > 0
	m.metrics.RideRequested(string(vehicleType), len(offers), hasDrivers)
	m.logger.Info("Ride requested",
		logger.UUID("ride_id", r.ID),
		logger.UUID("rider_id", r.RiderID),
		logger.String("status", string(r.Status)),
		logger.Int("offers", len(offers)),
	)

	ev := events.New(events.TypeRideRequested, r.ID, now)
	ev.RiderID = r.RiderID
	ev.Status = string(r.Status)
	ev.Data = map[string]any{"offers": len(offers), "pickup": pickup, "dropoff": dropoff}
	for _, o := range offers {
		ev.Recipients = append(ev.Recipients, o.DriverID)
	}
	m.publish(ctx, ev)

	offer.Sort(offers, offer.SortByPrice)
	return &RequestResult{
		RideID:     r.ID,
		Status:     r.Status,
		HasDrivers: hasDrivers,
		Offers:     offers,
	}, nil
}

// ListOffers returns the open offers of a pending ride in the requested order
func (m *Manager) ListOffers(ctx context.Context, rideID uuid.UUID, sortBy string) (offers []*offer.Offer, err error) {
	defer m.observe("list_offers", time.Now(), &err)

	by, err := offer.ParseSortBy(sortBy)
	if err != nil {
		return nil, toAppError(err)
	}
	r, err := m.store.Rides().GetByID(ctx, rideID)
	if err != nil {
		return nil, toAppError(err)
	}
	if r.Status != ride.StatusPending {
		return nil, toAppError(fmt.Errorf("%w: ride is %s", ErrRideNotPending, r.Status))
	}

	all, err := m.store.Offers().ListByRide(ctx, rideID)
	if err != nil {
		return nil, toAppError(err)
	}
	now := m.now()
	offers = make([]*offer.Offer, 0, len(all))
	for _, o := range all {
		if o.IsAccepted || o.IsExpired(now) {
			continue
		}
		offers = append(offers, o)
	}
	offer.Sort(offers, by)
	return offers, nil
}

// CompareRequest is the input of CompareOffers
type CompareRequest struct {
	RiderID     uuid.UUID
	Pickup      string
	Dropoff     string
	VehicleType string
	ComfortOnly bool // drops standard vehicles
	SortBy      string
}

// CompareOffers quotes every available driver without creating a ride
func (m *Manager) CompareOffers(ctx context.Context, req CompareRequest) (quotes []offer.Quote, err error) {
	defer m.observe("compare_offers", time.Now(), &err)
	quotes, err = m.compareOffers(ctx, req)
	return quotes, toAppError(err)
}

func (m *Manager) compareOffers(ctx context.Context, req CompareRequest) ([]offer.Quote, error) {
	pickup := strings.TrimSpace(req.Pickup)
	dropoff := strings.TrimSpace(req.Dropoff)
	if pickup == "" {
		return nil, ride.ErrEmptyPickupAddress
	}
	if dropoff == "" {
		return nil, ride.ErrEmptyDropoff
	}
	by, err := offer.ParseSortBy(req.SortBy)
	if err != nil {
		return nil, err
	}
	vehicleType, err := driver.ParseVehicleType(req.VehicleType)
	if err != nil {
		return nil, err
	}
	if req.RiderID != uuid.Nil {
		if _, err := m.store.Riders().GetByID(ctx, req.RiderID); err != nil {
			return nil, err
		}
	}

	var filter *driver.VehicleType
	if vehicleType != "" {
		filter = &vehicleType
	}
	candidates, err := m.directory.ListAvailableDrivers(ctx, filter)
	if err != nil {
		return nil, err
	}

	quotes := make([]offer.Quote, 0, len(candidates))
	for _, c := range candidates {
		if req.ComfortOnly && c.VehicleType == driver.VehicleStandard {
			continue
		}
		q, err := m.pricing.Quote(ctx, pricing.Trip{
			Pickup:      pickup,
			Dropoff:     dropoff,
			VehicleType: c.VehicleType,
			DriverID:    c.DriverID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to price quote for driver %s: %w", c.DriverID, err)
		}
		quote := offer.Quote{
			DriverID:      c.DriverID,
			DriverName:    c.Name,
			Price:         q.Price,
			EstimatedTime: q.ETAMinutes,
			VehicleType:   c.VehicleType,
			DriverRating:  c.Rating,
			CompanyName:   c.CompanyName,
			IsAvailable:   true,
		}
		if c.Vehicle != nil {
			quote.VehicleModel = c.Vehicle.ModelName()
			quote.VehicleColor = c.Vehicle.Color
		}
		quotes = append(quotes, quote)
	}

	offer.SortQuotes(quotes, by)
	return quotes, nil
}

// ScheduleRequest is the input of ScheduleRide
type ScheduleRequest struct {
	RiderID     uuid.UUID
	Pickup      string
	Dropoff     string
	ScheduledAt *time.Time // nil books one hour ahead
	VehicleType string
}

// ScheduleRide books a ride for later with a flat estimated price
func (m *Manager) ScheduleRide(ctx context.Context, req ScheduleRequest) (res *reservation.Reservation, err error) {
	defer m.observe("schedule_ride", time.Now(), &err)
	res, err = m.scheduleRide(ctx, req)
	return res, toAppError(err)
}

func (m *Manager) scheduleRide(ctx context.Context, req ScheduleRequest) (*reservation.Reservation, error) {
	pickup := strings.TrimSpace(req.Pickup)
	dropoff := strings.TrimSpace(req.Dropoff)
	if pickup == "" {
		return nil, ride.ErrEmptyPickupAddress
	}
	if dropoff == "" {
		return nil, ride.ErrEmptyDropoff
	}
	vehicleType, err := driver.ParseVehicleType(req.VehicleType)
	if err != nil {
		return nil, err
	}

	now := m.now()
	at, err := reservation.ResolveTime(req.ScheduledAt, now)
	if err != nil {
		return nil, err
	}
	if _, err := m.store.Riders().GetByID(ctx, req.RiderID); err != nil {
		return nil, err
	}

	q, err := m.pricing.Quote(ctx, pricing.Trip{Pickup: pickup, Dropoff: dropoff, VehicleType: vehicleType})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate price: %w", err)
	}

	res := &reservation.Reservation{
		ID:             uuid.New(),
		RiderID:        req.RiderID,
		PickupAddress:  pickup,
		DropoffAddress: dropoff,
		ScheduledAt:    at,
		Status:         reservation.StatusScheduled,
		EstimatedPrice: q.Price,
		VehicleType:    string(vehicleType),
		CreatedAt:      now,
	}
	if err := m.store.Reservations().Create(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	m.logger.Info("Ride scheduled",
		logger.UUID("reservation_id", res.ID),
		logger.UUID("rider_id", res.RiderID),
		logger.String("scheduled_at", at.Format(time.RFC3339)),
	)
	return res, nil
}
