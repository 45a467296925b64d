package cache

import (
	"context"
	"errors"

	"food-delivery-backend/models"
)

// CourierCache holds the point-in-time list of couriers eligible for assignment.
type CourierCache interface {
	GetAvailable(ctx context.Context) ([]models.Courier, error)
	SetAvailable(ctx context.Context, couriers []models.Courier) error
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")

// Nop never stores anything; every Get is a miss.
type Nop struct{}

func (Nop) GetAvailable(context.Context) ([]models.Courier, error) { return nil, ErrCacheMiss }

func (Nop) SetAvailable(context.Context, []models.Courier) error { return nil }

func (Nop) Invalidate(context.Context) error { return nil }
