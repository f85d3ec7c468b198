package dto

import "time"

// CreateRideRequest represents a rider asking for a trip
type CreateRideRequest struct {
	RiderID        string `json:"rider_id" binding:"required,uuid"`
	PickupAddress  string `json:"pickup_address" binding:"required"`
	DropoffAddress string `json:"dropoff_address" binding:"required"`
	VehicleType    string `json:"vehicle_type,omitempty"`
}

// AcceptOfferRequest represents the rider picking a driver's offer
type AcceptOfferRequest struct {
	DriverID string `json:"driver_id" binding:"required,uuid"`
}

// StartTripRequest represents a driver starting a trip
type StartTripRequest struct {
	DriverID string `json:"driver_id" binding:"required,uuid"`
}

// CompleteRideRequest represents the end of a trip
type CompleteRideRequest struct {
	FinalPrice      *float64 `json:"final_price" binding:"required"`
	PaymentMethod   string   `json:"payment_method" binding:"required"`
	DistanceKM      *float64 `json:"distance_km,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
}

// UpdateStatusRequest represents a generic status change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RateRideRequest represents the rider's rating of a finished ride
type RateRideRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// CompareOffersRequest represents a price comparison without booking
type CompareOffersRequest struct {
	RiderID        string `json:"rider_id,omitempty" binding:"omitempty,uuid"`
	PickupAddress  string `json:"pickup_address" binding:"required"`
	DropoffAddress string `json:"dropoff_address" binding:"required"`
	VehicleType    string `json:"vehicle_type,omitempty"`
	ComfortOnly    bool   `json:"comfort_only,omitempty"`
	SortBy         string `json:"sort_by,omitempty"`
}

// ScheduleRideRequest represents a ride booked for later
type ScheduleRideRequest struct {
	RiderID        string     `json:"rider_id" binding:"required,uuid"`
	PickupAddress  string     `json:"pickup_address" binding:"required"`
	DropoffAddress string     `json:"dropoff_address" binding:"required"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	VehicleType    string     `json:"vehicle_type,omitempty"`
}

// SetAvailabilityRequest represents a driver going on or off duty
type SetAvailabilityRequest struct {
	Available *bool    `json:"available" binding:"required"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// UpdateLocationRequest represents a driver location update
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// ValidateAddressRequest represents an address check
type ValidateAddressRequest struct {
	Address string `json:"address"`
}
