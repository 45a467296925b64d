package models

import "time"

// Courier is the delivery profile of a courier-role user.
type Courier struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	UserID            uint      `json:"user_id" gorm:"not null;uniqueIndex"`
	Name              string    `json:"name" gorm:"not null"`
	PhoneNumber       string    `json:"phone_number"`
	IsOnline          bool      `json:"is_online" gorm:"default:false"`
	IsAvailable       bool      `json:"is_available" gorm:"default:false"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	AverageRating     float64   `json:"average_rating" gorm:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Eligible reports whether the courier may be offered a new order.
func (c Courier) Eligible() bool {
	return c.IsOnline && c.IsAvailable
}

// CourierResponse is a courier's answer to an assignment.
type CourierResponse string

const (
	ResponseAccept CourierResponse = "ACCEPT"
	ResponseReject CourierResponse = "REJECT"
)

func (r CourierResponse) IsValid() bool {
	return r == ResponseAccept || r == ResponseReject
}

// CourierReview is the customer's one-time rating of the courier who delivered an order.
type CourierReview struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OrderID    uint      `json:"order_id" gorm:"not null;uniqueIndex:idx_review_order_courier"`
	CourierID  uint      `json:"courier_id" gorm:"not null;uniqueIndex:idx_review_order_courier;index"`
	CustomerID uint      `json:"customer_id" gorm:"not null"`
	Rating     int       `json:"rating" gorm:"not null"`
	ReviewText string    `json:"review_text"`
	CreatedAt  time.Time `json:"created_at"`
}
