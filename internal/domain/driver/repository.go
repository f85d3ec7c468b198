package driver

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for driver data access
type Repository interface {
	// Create creates a new driver
	Create(ctx context.Context, driver *Driver) error

	// GetByID retrieves a driver by ID; inside a transaction the row is locked for update
	GetByID(ctx context.Context, id uuid.UUID) (*Driver, error)

	// Update updates a driver
	Update(ctx context.Context, driver *Driver) error

	// GetAvailableDrivers retrieves all available, verified drivers
	GetAvailableDrivers(ctx context.Context) ([]*Driver, error)

	// GetActiveVehicle returns the active vehicle, or nil when none is registered
	GetActiveVehicle(ctx context.Context, driverID uuid.UUID) (*Vehicle, error)

	// SaveVehicle registers or replaces the driver's vehicle
	SaveVehicle(ctx context.Context, vehicle *Vehicle) error

	// GetActiveCompanies lists the active taxi companies
	GetActiveCompanies(ctx context.Context) ([]*Company, error)

	// SaveCompany creates or updates a company
	SaveCompany(ctx context.Context, company *Company) error
}
