package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
)

type driverRepo struct{ s *Store }

func (r driverRepo) Create(_ context.Context, drv *driver.Driver) error {
	return r.s.write(func(d *data) error {
		d.drivers[drv.ID] = drv.Clone()
		return nil
	})
}

func (r driverRepo) GetByID(_ context.Context, id uuid.UUID) (*driver.Driver, error) {
	var out *driver.Driver
	r.s.read(func(d *data) {
		if drv, ok := d.drivers[id]; ok {
			out = drv.Clone()
		}
	})
	if out == nil {
		return nil, driver.ErrDriverNotFound
	}
	return out, nil
}

func (r driverRepo) Update(_ context.Context, drv *driver.Driver) error {
	return r.s.write(func(d *data) error {
		if _, ok := d.drivers[drv.ID]; !ok {
			return driver.ErrDriverNotFound
		}
		d.drivers[drv.ID] = drv.Clone()
		return nil
	})
}

func (r driverRepo) GetAvailableDrivers(_ context.Context) ([]*driver.Driver, error) {
	var out []*driver.Driver
	r.s.read(func(d *data) {
		for _, drv := range d.drivers {
			if drv.CanAcceptRides() {
				out = append(out, drv.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StarRating != out[j].StarRating {
			return out[i].StarRating > out[j].StarRating
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r driverRepo) GetActiveVehicle(_ context.Context, driverID uuid.UUID) (*driver.Vehicle, error) {
	var out *driver.Vehicle
	r.s.read(func(d *data) {
		if v, ok := d.vehicles[driverID]; ok && v.IsActive {
			vc := *v
			out = &vc
		}
	})
	return out, nil
}

func (r driverRepo) SaveVehicle(_ context.Context, v *driver.Vehicle) error {
	if !v.Type.IsValid() {
		return driver.ErrInvalidVehicleType
	}
	return r.s.write(func(d *data) error {
		vc := *v
		d.vehicles[v.DriverID] = &vc
		return nil
	})
}

func (r driverRepo) GetActiveCompanies(_ context.Context) ([]*driver.Company, error) {
	var out []*driver.Company
	r.s.read(func(d *data) {
		for _, c := range d.companies {
			if c.IsActive {
				cc := *c
				out = append(out, &cc)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r driverRepo) SaveCompany(_ context.Context, c *driver.Company) error {
	return r.s.write(func(d *data) error {
		cc := *c
		d.companies[c.ID] = &cc
		return nil
	})
}
