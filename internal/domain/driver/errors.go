package driver

import "errors"

var (
	ErrDriverNotFound      = errors.New("driver not found")
	ErrCompanyNotFound     = errors.New("company not found")
	ErrInvalidVehicleType  = errors.New("invalid vehicle type")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrDriverNotAvailable  = errors.New("driver is not available")
	ErrDriverHasActiveRide = errors.New("driver has an active ride")
)
