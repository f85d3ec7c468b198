package pricing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
)

// Quote is the price and ETA of a trip
type Quote struct {
	Price      float64 `json:"price"`
	ETAMinutes int     `json:"eta_minutes"`
	DistanceKM float64 `json:"distance_km"`
}

// Trip is what gets priced. DriverID is uuid.Nil for estimates not tied to a driver.
type Trip struct {
	Pickup      string
	Dropoff     string
	VehicleType driver.VehicleType
	DriverID    uuid.UUID
}

// Policy prices a trip
type Policy interface {
	Quote(ctx context.Context, trip Trip) (Quote, error)
}

// Config holds pricing configuration
type Config struct {
	BaseFare          float64
	PerKMRate         float64
	AssumedDistanceKM float64
	Multipliers       map[driver.VehicleType]float64
	MinETAMinutes     int
	MaxETAMinutes     int // exclusive
}

// DefaultConfig returns the flat-rate defaults
func DefaultConfig() Config {
	return Config{
		BaseFare:          3.50,
		PerKMRate:         2.20,
		AssumedDistanceKM: 5,
		Multipliers: map[driver.VehicleType]float64{
			driver.VehicleStandard: 1.0,
			driver.VehicleComfort:  1.2,
			driver.VehicleVan:      1.3,
			driver.VehiclePremium:  1.5,
		},
		MinETAMinutes: 10,
		MaxETAMinutes: 45,
	}
}

// FlatRatePolicy charges base + assumed distance × rate, scaled per vehicle type.
// No routing is done, so the ETA is a stable pseudo-random value per address pair,
// vehicle type and driver.
type FlatRatePolicy struct {
	config Config
}

// NewFlatRatePolicy creates a flat-rate policy
func NewFlatRatePolicy(config Config) (*FlatRatePolicy, error) {
	if config.BaseFare < 0 || config.PerKMRate < 0 || config.AssumedDistanceKM < 0 {
		return nil, fmt.Errorf("pricing rates must not be negative")
	}
	if config.MinETAMinutes <= 0 || config.MaxETAMinutes <= config.MinETAMinutes {
		return nil, fmt.Errorf("invalid ETA range [%d, %d)", config.MinETAMinutes, config.MaxETAMinutes)
	}
	return &FlatRatePolicy{config: config}, nil
}

// Quote implements Policy
func (p *FlatRatePolicy) Quote(_ context.Context, trip Trip) (Quote, error) {
	vehicleType := trip.VehicleType
	if vehicleType == "" {
		vehicleType = driver.VehicleStandard
	}
	if !vehicleType.IsValid() {
		return Quote{}, driver.ErrInvalidVehicleType
	}

	multiplier, ok := p.config.Multipliers[vehicleType]
	if !ok {
		multiplier = 1.0
	}

	subtotal := p.config.BaseFare + p.config.AssumedDistanceKM*p.config.PerKMRate
	return Quote{
		Price:      roundMoney(subtotal * multiplier),
		ETAMinutes: p.eta(trip.Pickup, trip.Dropoff, vehicleType, trip.DriverID),
		DistanceKM: p.config.AssumedDistanceKM,
	}, nil
}

func (p *FlatRatePolicy) eta(pickup, dropoff string, vehicleType driver.VehicleType, driverID uuid.UUID) int {
	h := fnv.New32a()
	h.Write([]byte(pickup))
	h.Write([]byte{0})
	h.Write([]byte(dropoff))
	h.Write([]byte{0})
	h.Write([]byte(vehicleType))
	if driverID != uuid.Nil {
		h.Write(driverID[:])
	}
	span := uint32(p.config.MaxETAMinutes - p.config.MinETAMinutes)
	return p.config.MinETAMinutes + int(h.Sum32()%span)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
