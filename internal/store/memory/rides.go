package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
)

type rideRepo struct{ s *Store }

func (r rideRepo) Create(_ context.Context, rd *ride.Ride) error {
	return r.s.write(func(d *data) error {
		rd.Version = 1
		d.rides[rd.ID] = rd.Clone()
		return nil
	})
}

func (r rideRepo) GetByID(_ context.Context, id uuid.UUID) (*ride.Ride, error) {
	var out *ride.Ride
	r.s.read(func(d *data) {
		if rd, ok := d.rides[id]; ok {
			out = rd.Clone()
		}
	})
	if out == nil {
		return nil, ride.ErrRideNotFound
	}
	return out, nil
}

func (r rideRepo) Update(_ context.Context, rd *ride.Ride) error {
	return r.s.write(func(d *data) error {
		current, ok := d.rides[rd.ID]
		if !ok {
			return ride.ErrRideNotFound
		}
		if current.Version != rd.Version {
			return ride.ErrVersionConflict
		}
		rd.Version++
		d.rides[rd.ID] = rd.Clone()
		return nil
	})
}

func (r rideRepo) ListByRider(_ context.Context, riderID uuid.UUID, limit int) ([]*ride.Ride, error) {
	return r.latest(func(rd *ride.Ride) bool { return rd.RiderID == riderID }, limit), nil
}

func (r rideRepo) ListByDriver(_ context.Context, driverID uuid.UUID, limit int) ([]*ride.Ride, error) {
	return r.latest(func(rd *ride.Ride) bool { return rd.HasDriver(driverID) }, limit), nil
}

func (r rideRepo) ListByDriverAndStatus(_ context.Context, driverID uuid.UUID, statuses ...ride.Status) ([]*ride.Ride, error) {
	rides := r.filter(func(rd *ride.Ride) bool {
		if !rd.HasDriver(driverID) {
			return false
		}
		for _, st := range statuses {
			if rd.Status == st {
				return true
			}
		}
		return false
	})
	sortOldestFirst(rides)
	return rides, nil
}

func (r rideRepo) ListUnassigned(_ context.Context, status ride.Status) ([]*ride.Ride, error) {
	rides := r.filter(func(rd *ride.Ride) bool {
		return rd.DriverID == nil && rd.Status == status
	})
	sortOldestFirst(rides)
	return rides, nil
}

func (r rideRepo) filter(keep func(*ride.Ride) bool) []*ride.Ride {
	var out []*ride.Ride
	r.s.read(func(d *data) {
		for _, rd := range d.rides {
			if keep(rd) {
				out = append(out, rd.Clone())
			}
		}
	})
	return out
}

func (r rideRepo) latest(keep func(*ride.Ride) bool, limit int) []*ride.Ride {
	rides := r.filter(keep)
	sort.Slice(rides, func(i, j int) bool {
		if !rides[i].OrderedAt.Equal(rides[j].OrderedAt) {
			return rides[i].OrderedAt.After(rides[j].OrderedAt)
		}
		return rides[i].ID.String() < rides[j].ID.String()
	})
	if limit > 0 && len(rides) > limit {
		rides = rides[:limit]
	}
	return rides
}

func sortOldestFirst(rides []*ride.Ride) {
	sort.Slice(rides, func(i, j int) bool {
		if !rides[i].OrderedAt.Equal(rides[j].OrderedAt) {
			return rides[i].OrderedAt.Before(rides[j].OrderedAt)
		}
		return rides[i].ID.String() < rides[j].ID.String()
	})
}
