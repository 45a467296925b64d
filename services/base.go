// Package services holds the order lifecycle rules: status transitions, courier
// assignment, reviews, favorites and the supporting user, restaurant and courier records.
// Every method takes the request's models.Principal explicitly; nothing reads
// process-wide session state.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-delivery-backend/cache"
	"food-delivery-backend/events"
	"food-delivery-backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by all services.
type Deps struct {
	DB        *gorm.DB
	Cache     cache.CourierCache
	Publisher events.Publisher
	Logger    *zap.Logger
}

type base struct {
	db     *gorm.DB
	cache  cache.CourierCache
	pub    events.Publisher
	logger *zap.Logger
	now    func() time.Time
}

func newBase(d Deps) base {
	b := base{
		db:     d.DB,
		cache:  d.Cache,
		pub:    d.Publisher,
		logger: d.Logger,
		now:    time.Now,
	}
	if b.cache == nil {
		b.cache = cache.Nop{}
	}
	if b.pub == nil {
		b.pub = events.Nop{}
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// dbErr converts gorm's not-found into the domain error.
func dbErr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", models.ErrNotFound, what, id)
	}
	return err
}

func (b *base) loadOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := b.db.WithContext(ctx).
		Preload("Items").
		Preload("Restaurant").
		Preload("Courier").
		First(&order, id).Error
	if err != nil {
		return nil, dbErr(err, "order", id)
	}
	return &order, nil
}

func (b *base) loadCourier(ctx context.Context, id uint) (*models.Courier, error) {
	var courier models.Courier
	if err := b.db.WithContext(ctx).First(&courier, id).Error; err != nil {
		return nil, dbErr(err, "courier", id)
	}
	return &courier, nil
}

// canView reports whether p may read order.
func canView(p models.Principal, order *models.Order) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return order.CustomerID == p.UserID
	case models.RoleRestaurant:
		return order.Restaurant != nil && order.Restaurant.OwnerID == p.UserID
	case models.RoleCourier:
		return p.CourierID != nil && order.CourierID != nil && *order.CourierID == *p.CourierID
	default:
		return false
	}
}

// visibleOrder loads an order and hides it from callers outside its scope.
func (b *base) visibleOrder(ctx context.Context, p models.Principal, id uint) (*models.Order, error) {
	order, err := b.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(p, order) {
		return nil, fmt.Errorf("%w: order %d", models.ErrNotFound, id)
	}
	return order, nil
}

// transition is a status change guarded by a compare-and-swap on the current status.
type transition struct {
	order *models.Order
	to    models.OrderStatus
	actor models.Principal
	note  string
	// set holds extra columns written together with the status
	set map[string]interface{}
	// guard narrows the CAS with extra conditions
	guard func(*gorm.DB) *gorm.DB
}

// commit applies t atomically and writes the history row. The loser of a race gets a
// *models.ConflictError wrapping models.ErrOrderNotEligible.
func (b *base) commit(ctx context.Context, t transition) error {
	from := t.order.Status
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     t.to,
			"updated_at": b.now(),
		}
		for k, v := range t.set {
			updates[k] = v
		}

		q := tx.Model(&models.Order{}).Where("id = ? AND status = ?", t.order.ID, from)
		if t.guard != nil {
			q = t.guard(q)
		}
		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return &models.ConflictError{
				OrderID: t.order.ID,
				Err:     fmt.Errorf("%w: order %d is no longer %s", models.ErrOrderNotEligible, t.order.ID, from),
			}
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:    t.order.ID,
			FromStatus: from,
			ToStatus:   t.to,
			ChangedBy:  t.actor.UserID,
			ActorRole:  t.actor.Role,
			Note:       t.note,
		}).Error
	})
}

// publish sends ev; failures are logged, the committed change stands.
func (b *base) publish(ctx context.Context, ev events.OrderEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = b.now()
	}
	if err := b.pub.Publish(ctx, ev); err != nil {
		b.logger.Warn("failed to publish order event",
			zap.String("type", ev.Type),
			zap.Uint("order_id", ev.OrderID),
			zap.Error(err))
	}
}

func orderEvent(typ string, order *models.Order, from models.OrderStatus, p models.Principal) events.OrderEvent {
	return events.OrderEvent{
		Type:         typ,
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		CustomerID:   order.CustomerID,
		CourierID:    order.CourierID,
		FromStatus:   from,
		ToStatus:     order.Status,
		ActorID:      p.UserID,
		ActorRole:    p.Role,
	}
}

// invalidateCouriers drops the cached eligibility list after anything that changes it.
func (b *base) invalidateCouriers(ctx context.Context) {
	if err := b.cache.Invalidate(ctx); err != nil {
		b.logger.Warn("failed to invalidate courier cache", zap.Error(err))
	}
}
