package events

import (
	"context"
	"time"

	"food-delivery-backend/models"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
	TypeCourierAssigned    = "order.courier_assigned"
	TypeCourierUnassigned  = "order.courier_unassigned"
	TypeOrderRated         = "order.rated"
	TypeCourierRated       = "courier.rated"
)

// OrderEvent is published after an order mutation has been committed.
type OrderEvent struct {
	Type         string             `json:"type"`
	OrderID      uint               `json:"order_id"`
	RestaurantID uint               `json:"restaurant_id"`
	CustomerID   uint               `json:"customer_id"`
	CourierID    *uint              `json:"courier_id,omitempty"`
	FromStatus   models.OrderStatus `json:"from_status,omitempty"`
	ToStatus     models.OrderStatus `json:"to_status"`
	ActorID      uint               `json:"actor_id"`
	ActorRole    models.UserRole    `json:"actor_role"`
	Rating       int                `json:"rating,omitempty"`
	OccurredAt   time.Time          `json:"occurred_at"`
}

// RoutingKey is the topic key the event is published under.
func (e OrderEvent) RoutingKey() string {
	return e.Type + "." + string(e.ToStatus)
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }

func (Nop) Close() error { return nil }
