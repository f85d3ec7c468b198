package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/offer"
)

type offerRepo struct{ s *Store }

func (r offerRepo) CreateBatch(_ context.Context, offers []*offer.Offer) error {
	return r.s.write(func(d *data) error {
		for _, o := range offers {
			d.offers[o.ID] = o.Clone()
		}
		return nil
	})
}

func (r offerRepo) ListByRide(_ context.Context, rideID uuid.UUID) ([]*offer.Offer, error) {
	var out []*offer.Offer
	r.s.read(func(d *data) {
		for _, o := range d.offers {
			if o.RideID == rideID {
				out = append(out, o.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r offerRepo) GetByRideAndDriver(_ context.Context, rideID, driverID uuid.UUID) (*offer.Offer, error) {
	var out *offer.Offer
	r.s.read(func(d *data) {
		for _, o := range d.offers {
			if o.RideID == rideID && o.DriverID == driverID {
				out = o.Clone()
				return
			}
		}
	})
	if out == nil {
		return nil, offer.ErrOfferNotFound
	}
	return out, nil
}

func (r offerRepo) Update(_ context.Context, o *offer.Offer) error {
	return r.s.write(func(d *data) error {
		if _, ok := d.offers[o.ID]; !ok {
			return offer.ErrOfferNotFound
		}
		d.offers[o.ID] = o.Clone()
		return nil
	})
}

func (r offerRepo) DeleteByRideExcept(_ context.Context, rideID, keepDriverID uuid.UUID) (int, error) {
	deleted := 0
	err := r.s.write(func(d *data) error {
		for id, o := range d.offers {
			if o.RideID != rideID {
				continue
			}
			if keepDriverID != uuid.Nil && o.DriverID == keepDriverID {
				continue
			}
			delete(d.offers, id)
			deleted++
		}
		return nil
	})
	return deleted, err
}
