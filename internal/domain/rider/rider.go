package rider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRiderNotFound = errors.New("rider not found")
	ErrInvalidRider  = errors.New("invalid rider data")
)

// Rider is the requester of a ride
type Rider struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository defines the interface for rider data access
type Repository interface {
	Create(ctx context.Context, rider *Rider) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rider, error)
}

// Validate checks the fields required to register a rider
func (r *Rider) Validate() error {
	if r.ID == uuid.Nil || strings.TrimSpace(r.Name) == "" {
		return ErrInvalidRider
	}
	return nil
}
