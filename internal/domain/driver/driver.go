package driver

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// VehicleType represents the type of vehicle
type VehicleType string

const (
	VehicleStandard VehicleType = "standard"
	VehicleComfort  VehicleType = "comfort"
	VehicleVan      VehicleType = "van"
	VehiclePremium  VehicleType = "premium"
)

// Driver represents a driver profile together with its runtime state
type Driver struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	CompanyID         int64      `json:"company_id"`
	StarRating        float64    `json:"star_rating"`
	IsAvailable       bool       `json:"is_available"`
	IsVerified        bool       `json:"is_verified"`
	CurrentLatitude   *float64   `json:"current_latitude,omitempty"`
	CurrentLongitude  *float64   `json:"current_longitude,omitempty"`
	LocationUpdatedAt *time.Time `json:"location_updated_at,omitempty"`
	TotalRides        int        `json:"total_rides"`
	TotalEarnings     float64    `json:"total_earnings"`
	LastActiveAt      time.Time  `json:"last_active_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Vehicle is the active vehicle registered to a driver
type Vehicle struct {
	DriverID     uuid.UUID   `json:"driver_id"`
	Type         VehicleType `json:"type"`
	Make         string      `json:"make"`
	Model        string      `json:"model"`
	Color        string      `json:"color"`
	LicensePlate string      `json:"license_plate,omitempty"`
	IsActive     bool        `json:"is_active"`
}

// Company is a taxi company a driver may belong to
type Company struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Location represents a geographic location
type Location struct {
	Latitude  float64
	Longitude float64
}

const (
	UnknownVehicleValue = "Unknown"
	IndependentCompany  = "Independent"
)

// UnknownVehicle is returned for drivers without an active vehicle
func UnknownVehicle(driverID uuid.UUID) *Vehicle {
	return &Vehicle{
		DriverID: driverID,
		Type:     VehicleStandard,
		Make:     UnknownVehicleValue,
		Model:    UnknownVehicleValue,
		Color:    UnknownVehicleValue,
	}
}

// IsValid validates the vehicle type
func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleStandard, VehicleComfort, VehicleVan, VehiclePremium:
		return true
	}
	return false
}

// ParseVehicleType accepts any casing; empty input means no preference
func ParseVehicleType(value string) (VehicleType, error) {
	v := VehicleType(strings.ToLower(strings.TrimSpace(value)))
	if v == "" {
		return "", nil
	}
	if !v.IsValid() {
		return "", ErrInvalidVehicleType
	}
	return v, nil
}

// ModelName returns "make model" for display
func (v *Vehicle) ModelName() string {
	if v.Make == UnknownVehicleValue && v.Model == UnknownVehicleValue {
		return UnknownVehicleValue
	}
	return strings.TrimSpace(v.Make + " " + v.Model)
}

// CanAcceptRides returns true if driver can accept new rides
func (d *Driver) CanAcceptRides() bool {
	return d.IsAvailable && d.IsVerified
}

// SetLocation updates the driver's current location
func (d *Driver) SetLocation(lat, lng float64, now time.Time) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidCoordinates
	}
	d.CurrentLatitude = &lat
	d.CurrentLongitude = &lng
	d.LocationUpdatedAt = &now
	d.UpdatedAt = now
	return nil
}

// GetLocation returns the driver's current location
func (d *Driver) GetLocation() *Location {
	if d.CurrentLatitude == nil || d.CurrentLongitude == nil {
		return nil
	}
	return &Location{
		Latitude:  *d.CurrentLatitude,
		Longitude: *d.CurrentLongitude,
	}
}

// Engage marks the driver busy with an accepted ride
func (d *Driver) Engage(now time.Time) {
	d.IsAvailable = false
	d.UpdatedAt = now
}

// Release makes the driver available again without touching earnings
func (d *Driver) Release(now time.Time) {
	d.IsAvailable = true
	d.UpdatedAt = now
}

// RecordCompletedRide applies the completion side effects
func (d *Driver) RecordCompletedRide(fare float64, now time.Time) {
	d.IsAvailable = true
	d.TotalRides++
	d.TotalEarnings += fare
	d.LastActiveAt = now
	d.UpdatedAt = now
}

// Clone returns a deep copy
func (d *Driver) Clone() *Driver {
	c := *d
	if d.CurrentLatitude != nil {
		v := *d.CurrentLatitude
		c.CurrentLatitude = &v
	}
	if d.CurrentLongitude != nil {
		v := *d.CurrentLongitude
		c.CurrentLongitude = &v
	}
	if d.LocationUpdatedAt != nil {
		v := *d.LocationUpdatedAt
		c.LocationUpdatedAt = &v
	}
	return &c
}
