package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/reservation"
	"github.com/taxiride/ride-hailing/internal/domain/rider"
)

type riderRepo struct{ s *Store }

func (r riderRepo) Create(_ context.Context, rd *rider.Rider) error {
	if err := rd.Validate(); err != nil {
		return err
	}
	return r.s.write(func(d *data) error {
		rc := *rd
		d.riders[rd.ID] = &rc
		return nil
	})
}

func (r riderRepo) GetByID(_ context.Context, id uuid.UUID) (*rider.Rider, error) {
	var out *rider.Rider
	r.s.read(func(d *data) {
		if rd, ok := d.riders[id]; ok {
			rc := *rd
			out = &rc
		}
	})
	if out == nil {
		return nil, rider.ErrRiderNotFound
	}
	return out, nil
}

type reservationRepo struct{ s *Store }

func (r reservationRepo) Create(_ context.Context, res *reservation.Reservation) error {
	return r.s.write(func(d *data) error {
		rc := *res
		d.reservations[res.ID] = &rc
		return nil
	})
}

func (r reservationRepo) ListByRider(_ context.Context, riderID uuid.UUID) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	r.s.read(func(d *data) {
		for _, res := range d.reservations {
			if res.RiderID == riderID {
				rc := *res
				out = append(out, &rc)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}
