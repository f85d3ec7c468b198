package offer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
)

// SortBy is the ordering criterion for offer lists
type SortBy string

const (
	SortByPrice  SortBy = "price"
	SortByTime   SortBy = "time"
	SortByRating SortBy = "rating"
)

// Offer is a driver's bid for a pending ride
type Offer struct {
	ID            uuid.UUID          `json:"id"`
	RideID        uuid.UUID          `json:"ride_id"`
	DriverID      uuid.UUID          `json:"driver_id"`
	DriverName    string             `json:"driver_name,omitempty"`
	Price         float64            `json:"price"`
	EstimatedTime int                `json:"estimated_time_minutes"`
	VehicleType   driver.VehicleType `json:"vehicle_type"`
	DriverRating  float64            `json:"driver_rating"`
	CompanyID     int64              `json:"company_id"`
	IsAccepted    bool               `json:"is_accepted"`
	CreatedAt     time.Time          `json:"created_at"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
}

// Quote is a non-persisted offer produced for comparison
type Quote struct {
	DriverID      uuid.UUID          `json:"driver_id"`
	DriverName    string             `json:"driver_name"`
	Price         float64            `json:"price"`
	EstimatedTime int                `json:"estimated_time_minutes"`
	VehicleType   driver.VehicleType `json:"vehicle_type"`
	DriverRating  float64            `json:"driver_rating"`
	CompanyName   string             `json:"company_name"`
	VehicleModel  string             `json:"vehicle_model"`
	VehicleColor  string             `json:"vehicle_color"`
	IsAvailable   bool               `json:"is_available"`
}

// Repository defines offer persistence
type Repository interface {
	CreateBatch(ctx context.Context, offers []*Offer) error
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]*Offer, error)
	GetByRideAndDriver(ctx context.Context, rideID, driverID uuid.UUID) (*Offer, error)
	Update(ctx context.Context, offer *Offer) error
	// DeleteByRideExcept removes every offer of the ride not made by keepDriverID;
	// uuid.Nil removes them all
	DeleteByRideExcept(ctx context.Context, rideID, keepDriverID uuid.UUID) (int, error)
}

var (
	ErrOfferNotFound = errors.New("offer not found")
	ErrOfferExpired  = errors.New("offer has expired")
	ErrInvalidSortBy = errors.New("invalid sort criterion")
)

// ParseSortBy maps a client value onto a criterion; empty defaults to price
func ParseSortBy(value string) (SortBy, error) {
	switch SortBy(strings.ToLower(strings.TrimSpace(value))) {
	case "", SortByPrice:
		return SortByPrice, nil
	case SortByTime, "eta":
		return SortByTime, nil
	case SortByRating:
		return SortByRating, nil
	}
	return "", ErrInvalidSortBy
}

// IsExpired reports whether the bidding window of the offer has closed
func (o *Offer) IsExpired(now time.Time) bool {
	return o.ExpiresAt != nil && !now.Before(*o.ExpiresAt)
}

// Clone returns a deep copy
func (o *Offer) Clone() *Offer {
	c := *o
	if o.ExpiresAt != nil {
		t := *o.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// Sort orders offers in place: price and time ascending, rating descending.
// Ties fall back to price, then driver id, so the order is stable across calls.
func Sort(offers []*Offer, by SortBy) {
	sort.SliceStable(offers, func(i, j int) bool {
		return less(by,
			offers[i].Price, offers[j].Price,
			offers[i].EstimatedTime, offers[j].EstimatedTime,
			offers[i].DriverRating, offers[j].DriverRating,
			offers[i].DriverID, offers[j].DriverID)
	})
}

// SortQuotes orders quotes with the same rules as Sort
func SortQuotes(quotes []Quote, by SortBy) {
	sort.SliceStable(quotes, func(i, j int) bool {
		return less(by,
			quotes[i].Price, quotes[j].Price,
			quotes[i].EstimatedTime, quotes[j].EstimatedTime,
			quotes[i].DriverRating, quotes[j].DriverRating,
			quotes[i].DriverID, quotes[j].DriverID)
	})
}

func less(by SortBy, pi, pj float64, ei, ej int, ri, rj float64, di, dj uuid.UUID) bool {
	switch by {
	case SortByTime:
		if ei != ej {
			return ei < ej
		}
	case SortByRating:
		if ri != rj {
			return ri > rj
		}
	}
	if pi != pj {
		return pi < pj
	}
	return di.String() < dj.String()
}
