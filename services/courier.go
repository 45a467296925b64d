package services

import (
	"context"
	"errors"
	"fmt"

	"food-delivery-backend/cache"
	"food-delivery-backend/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CourierStatusInput struct {
	IsOnline    *bool `json:"is_online"`
	IsAvailable *bool `json:"is_available"`
}

type CourierService struct {
	base
	sfg singleflight.Group
}

func NewCourierService(d Deps) *CourierService {
	return &CourierService{base: newBase(d)}
}

// ListAvailable returns online, available couriers with no active delivery. The result
// is a cached point-in-time read; AssignCourier re-checks eligibility.
func (s *CourierService) ListAvailable(ctx context.Context) ([]models.Courier, error) {
	// the flight is shared, so it must outlive any one caller's cancellation
	flightCtx := context.WithoutCancel(ctx)
	ch := s.sfg.DoChan("available", func() (interface{}, error) {
		couriers, err := s.cache.GetAvailable(flightCtx)
		if err == nil {
			return couriers, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("courier cache get failed", zap.Error(err))
		}

		couriers = []models.Courier{}
		err = s.db.WithContext(flightCtx).
			Where("is_online = ? AND is_available = ?", true, true).
			Where("NOT EXISTS (SELECT 1 FROM orders WHERE orders.courier_id = couriers.id AND orders.status IN ?)",
				[]models.OrderStatus{models.StatusAssigned, models.StatusInTransit}).
			Order("id asc").
			Find(&couriers).Error
		if err != nil {
			return nil, err
		}

		if err := s.cache.SetAvailable(flightCtx, couriers); err != nil {
			s.logger.Warn("courier cache set failed", zap.Error(err))
		}
		return couriers, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.Courier), nil
	}
}

// UpdateStatus lets a courier go online/offline and toggle availability.
func (s *CourierService) UpdateStatus(ctx context.Context, p models.Principal, in CourierStatusInput) (*models.Courier, error) {
	courier, err := s.own(ctx, p)
	if err != nil {
		return nil, err
	}
	if in.IsOnline == nil && in.IsAvailable == nil {
		return nil, fmt.Errorf("%w: nothing to update", models.ErrValidation)
	}

	updates := map[string]interface{}{}
	if in.IsOnline != nil {
		updates["is_online"] = *in.IsOnline
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}
	if err := s.db.WithContext(ctx).Model(courier).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.invalidateCouriers(ctx)
	if courier, err = s.loadCourier(ctx, courier.ID); err != nil {
		return nil, err
	}

	s.logger.Info("courier status updated",
		zap.Uint("courier_id", courier.ID),
		zap.Bool("online", courier.IsOnline),
		zap.Bool("available", courier.IsAvailable))
	return courier, nil
}

// Profile returns the caller's courier profile with its average rating.
func (s *CourierService) Profile(ctx context.Context, p models.Principal) (*models.Courier, error) {
	courier, err := s.own(ctx, p)
	if err != nil {
		return nil, err
	}
	if courier.AverageRating, err = AverageRating(ctx, s.db, courier.ID); err != nil {
		return nil, err
	}
	return courier, nil
}

// ActiveOrders returns the caller's orders awaiting a response or on the way.
func (s *CourierService) ActiveOrders(ctx context.Context, p models.Principal) ([]models.Order, error) {
	courier, err := s.own(ctx, p)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	err = s.db.WithContext(ctx).
		Preload("Items").Preload("Restaurant").
		Where("courier_id = ? AND status IN ?", courier.ID,
			[]models.OrderStatus{models.StatusAssigned, models.StatusInTransit}).
		Order("updated_at desc").
		Find(&orders).Error
	return orders, err
}

func (s *CourierService) own(ctx context.Context, p models.Principal) (*models.Courier, error) {
	if p.Role != models.RoleCourier || p.CourierID == nil {
		return nil, fmt.Errorf("%w: courier profile required", models.ErrForbidden)
	}
	return s.loadCourier(ctx, *p.CourierID)
}
