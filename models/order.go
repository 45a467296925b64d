package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents all possible states of a food delivery order
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "PLACED"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	StatusAssigned       OrderStatus = "ASSIGNED"
	StatusInTransit      OrderStatus = "IN_TRANSIT"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
	StatusRejected       OrderStatus = "REJECTED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPlaced,
	StatusConfirmed,
	StatusPreparing,
	StatusReadyForPickup,
	StatusAssigned,
	StatusInTransit,
	StatusDelivered,
	StatusCancelled,
	StatusRejected,
}

func (s OrderStatus) IsValid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRejected
}

// IsActiveDelivery reports whether a courier is currently holding the order.
func (s OrderStatus) IsActiveDelivery() bool {
	return s == StatusAssigned || s == StatusInTransit
}

func (s OrderStatus) String() string {
	return string(s)
}

type Order struct {
	ID              uint                 `json:"id" gorm:"primaryKey"`
	CustomerID      uint                 `json:"customer_id" gorm:"not null;index"`
	Customer        *User                `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	RestaurantID    uint                 `json:"restaurant_id" gorm:"not null;index"`
	Restaurant      *Restaurant          `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	CourierID       *uint                `json:"courier_id" gorm:"index"`
	Courier         *Courier             `json:"courier,omitempty" gorm:"foreignKey:CourierID"`
	Status          OrderStatus          `json:"status" gorm:"not null;default:'PLACED';index"`
	TotalPrice      decimal.Decimal      `json:"total_price" gorm:"type:decimal(12,2);not null"`
	DeliveryAddress string               `json:"delivery_address" gorm:"not null"`
	Notes           string               `json:"notes"`
	CustomerRating  *int                 `json:"customer_rating"`
	CustomerReview  *string              `json:"customer_review_text"`
	CourierRating   *int                 `json:"courier_rating"`
	CourierReview   *string              `json:"courier_review_text"`
	ReorderedFromID *uint                `json:"reordered_from_id,omitempty"`
	IsFavorite      bool                 `json:"is_favorite" gorm:"-"`
	Items           []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory   []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type OrderItem struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	OrderID    uint            `json:"order_id" gorm:"not null;index"`
	MenuItemID uint            `json:"menu_item_id" gorm:"not null"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"` // snapshot price at time of order
	Name       string          `json:"name"`                                         // snapshot name
}

// LineTotal is quantity × snapshot price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems totals the snapshot prices of the given items.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"` // user ID who triggered the transition
	ActorRole  UserRole    `json:"actor_role"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

// FavoriteOrder is a customer bookmark on one of their orders.
type FavoriteOrder struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CustomerID uint      `json:"customer_id" gorm:"not null;uniqueIndex:idx_favorite_customer_order"`
	OrderID    uint      `json:"order_id" gorm:"not null;uniqueIndex:idx_favorite_customer_order"`
	CreatedAt  time.Time `json:"created_at"`
}
