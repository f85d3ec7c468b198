package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/pkg/logger"
)

// Candidate is an available driver that can be offered a ride
type Candidate struct {
	DriverID    uuid.UUID
	Name        string
	Rating      float64
	VehicleType driver.VehicleType
	CompanyID   int64
	CompanyName string
	Vehicle     *driver.Vehicle
}

// Service is the read side of drivers, vehicles and companies
type Service struct {
	drivers driver.Repository
	logger  *logger.Logger
}

// NewService creates a new directory service
func NewService(drivers driver.Repository, log *logger.Logger) *Service {
	return &Service{
		drivers: drivers,
		logger:  log,
	}
}

// ListAvailableDrivers returns available, verified drivers, optionally only those
// whose active vehicle is of the given type
func (s *Service) ListAvailableDrivers(ctx context.Context, filter *driver.VehicleType) ([]Candidate, error) {
	drivers, err := s.drivers.GetAvailableDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available drivers: %w", err)
	}

	companies, err := s.companyNames(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(drivers))
	for _, d := range drivers {
		vehicle, err := s.GetVehicle(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		if filter != nil && *filter != "" && vehicle.Type != *filter {
			continue
		}

		name, ok := companies[d.CompanyID]
		if !ok {
			name = driver.IndependentCompany
		}

		candidates = append(candidates, Candidate{
			DriverID:    d.ID,
			Name:        d.Name,
			Rating:      d.StarRating,
			VehicleType: vehicle.Type,
			CompanyID:   d.CompanyID,
			CompanyName: name,
			Vehicle:     vehicle,
		})
	}

	s.logger.Debug("Available drivers listed",
		logger.Int("total", len(drivers)),
		logger.Int("matching", len(candidates)),
	)
	return candidates, nil
}

// GetVehicle returns the driver's active vehicle or the unknown defaults
func (s *Service) GetVehicle(ctx context.Context, driverID uuid.UUID) (*driver.Vehicle, error) {
	v, err := s.drivers.GetActiveVehicle(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	if v == nil {
		return driver.UnknownVehicle(driverID), nil
	}
	return v, nil
}

// CompanyName resolves a company id; 0 and unknown ids are independent drivers
func (s *Service) CompanyName(ctx context.Context, companyID int64) (string, error) {
	companies, err := s.companyNames(ctx)
	if err != nil {
		return "", err
	}
	if name, ok := companies[companyID]; ok {
		return name, nil
	}
	return driver.IndependentCompany, nil
}

func (s *Service) companyNames(ctx context.Context) (map[int64]string, error) {
	companies, err := s.drivers.GetActiveCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	names := make(map[int64]string, len(companies))
	for _, c := range companies {
		names[c.ID] = c.Name
	}
	return names, nil
}
