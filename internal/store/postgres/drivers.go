package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
)

const driverColumns = `id, name, email, phone, company_id, star_rating, is_available, is_verified,
	current_latitude, current_longitude, location_updated_at, total_rides, total_earnings,
	last_active_at, created_at, updated_at`

type driverRepo struct{ s *Store }

func scanDriver(row rowScanner) (*driver.Driver, error) {
	var d driver.Driver
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.CompanyID, &d.StarRating, &d.IsAvailable, &d.IsVerified,
		&d.CurrentLatitude, &d.CurrentLongitude, &d.LocationUpdatedAt, &d.TotalRides, &d.TotalEarnings,
		&d.LastActiveAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r driverRepo) Create(ctx context.Context, d *driver.Driver) error {
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO drivers (`+driverColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, d.ID, d.Name, d.Email, d.Phone, d.CompanyID, d.StarRating, d.IsAvailable, d.IsVerified,
		d.CurrentLatitude, d.CurrentLongitude, d.LocationUpdatedAt, d.TotalRides, d.TotalEarnings,
		d.LastActiveAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert driver: %w", mapInsertError(err))
	}
	return nil
}

func (r driverRepo) GetByID(ctx context.Context, id uuid.UUID) (*driver.Driver, error) {
	row := r.s.q.QueryRowContext(ctx, r.s.forUpdate(`SELECT `+driverColumns+` FROM drivers WHERE id = $1`), id)
	d, err := scanDriver(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driver.ErrDriverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load driver: %w", err)
	}
	return d, nil
}

func (r driverRepo) Update(ctx context.Context, d *driver.Driver) error {
	res, err := r.s.q.ExecContext(ctx, `
		UPDATE drivers SET
			star_rating = $2, is_available = $3, current_latitude = $4, current_longitude = $5,
			location_updated_at = $6, total_rides = $7, total_earnings = $8, last_active_at = $9,
			updated_at = $10
		WHERE id = $1
	`, d.ID, d.StarRating, d.IsAvailable, d.CurrentLatitude, d.CurrentLongitude,
		d.LocationUpdatedAt, d.TotalRides, d.TotalEarnings, d.LastActiveAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update driver: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return driver.ErrDriverNotFound
	}
	return nil
}

func (r driverRepo) GetAvailableDrivers(ctx context.Context) ([]*driver.Driver, error) {
	rows, err := r.s.q.QueryContext(ctx, `
		SELECT `+driverColumns+` FROM drivers
		WHERE is_available = TRUE AND is_verified = TRUE
		ORDER BY star_rating DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query drivers: %w", err)
	}
	defer rows.Close()

	var drivers []*driver.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r driverRepo) GetActiveVehicle(ctx context.Context, driverID uuid.UUID) (*driver.Vehicle, error) {
	var v driver.Vehicle
	err := r.s.q.QueryRowContext(ctx, `
		SELECT driver_id, type, make, model, color, license_plate, is_active
		FROM vehicles WHERE driver_id = $1 AND is_active = TRUE
	`, driverID).Scan(&v.DriverID, &v.Type, &v.Make, &v.Model, &v.Color, &v.LicensePlate, &v.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	return &v, nil
}

func (r driverRepo) SaveVehicle(ctx context.Context, v *driver.Vehicle) error {
	if !v.Type.IsValid() {
		return driver.ErrInvalidVehicleType
	}
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO vehicles (driver_id, type, make, model, color, license_plate, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (driver_id) DO UPDATE SET
			type = EXCLUDED.type,
			make = EXCLUDED.make,
			model = EXCLUDED.model,
			color = EXCLUDED.color,
			license_plate = EXCLUDED.license_plate,
			is_active = EXCLUDED.is_active
	`, v.DriverID, v.Type, v.Make, v.Model, v.Color, v.LicensePlate, v.IsActive)
	if err != nil {
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

func (r driverRepo) GetActiveCompanies(ctx context.Context) ([]*driver.Company, error) {
	rows, err := r.s.q.QueryContext(ctx, `SELECT id, name, is_active FROM companies WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var companies []*driver.Company
	for rows.Next() {
		var c driver.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

func (r driverRepo) SaveCompany(ctx context.Context, c *driver.Company) error {
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO companies (id, name, is_active) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, is_active = EXCLUDED.is_active
	`, c.ID, c.Name, c.IsActive)
	if err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}
