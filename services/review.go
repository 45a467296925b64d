package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"food-delivery-backend/events"
	"food-delivery-backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minRating = 1
	maxRating = 5
)

type ReviewService struct {
	base
}

func NewReviewService(d Deps) *ReviewService {
	return &ReviewService{base: newBase(d)}
}

func validateRating(rating int) error {
	if rating < minRating || rating > maxRating {
		return fmt.Errorf("%w: rating must be between %d and %d, got %d", models.ErrValidation, minRating, maxRating, rating)
	}
	return nil
}

// deliveredOrderOf loads an order the customer p placed and checks it was delivered.
func (s *ReviewService) deliveredOrderOf(ctx context.Context, p models.Principal, orderID uint) (*models.Order, error) {
	if p.Role != models.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers leave ratings", models.ErrForbidden)
	}
	order, err := s.visibleOrder(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusDelivered {
		return nil, fmt.Errorf("%w: order %d is %s, only delivered orders can be rated",
			models.ErrOrderNotEligible, order.ID, order.Status)
	}
	return order, nil
}

// RateOrder records the customer's one-time rating of a delivered order.
func (s *ReviewService) RateOrder(ctx context.Context, p models.Principal, orderID uint, rating int, reviewText string) (*models.Order, error) {
	order, err := s.deliveredOrderOf(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}

	// check and set in one statement
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND customer_rating IS NULL", order.ID, models.StatusDelivered).
		Updates(map[string]interface{}{
			"customer_rating": rating,
			"customer_review": reviewText,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: order %d", models.ErrAlreadyRated, order.ID)
	}

	s.logger.Info("order rated", zap.Uint("order_id", order.ID), zap.Int("rating", rating))

	updated, err := s.loadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	ev := orderEvent(events.TypeOrderRated, updated, updated.Status, p)
	ev.Rating = rating
	s.publish(ctx, ev)
	return updated, nil
}

// RateCourier records the customer's one-time rating of the courier who delivered the
// order. courierID may be nil, meaning the order's courier.
func (s *ReviewService) RateCourier(ctx context.Context, p models.Principal, orderID uint, courierID *uint, rating int, reviewText string) (*models.CourierReview, error) {
	order, err := s.deliveredOrderOf(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	if order.CourierID == nil {
		return nil, fmt.Errorf("%w: order %d was never assigned a courier", models.ErrOrderNotEligible, order.ID)
	}
	if courierID != nil && *courierID != *order.CourierID {
		return nil, fmt.Errorf("%w: courier %d did not deliver order %d", models.ErrOrderNotEligible, *courierID, order.ID)
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}

	review := models.CourierReview{
		OrderID:    order.ID,
		CourierID:  *order.CourierID,
		CustomerID: p.UserID,
		Rating:     rating,
		ReviewText: reviewText,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND courier_id = ? AND courier_rating IS NULL", order.ID, review.CourierID).
			Updates(map[string]interface{}{
				"courier_rating": rating,
				"courier_review": reviewText,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: courier %d for order %d", models.ErrAlreadyRated, review.CourierID, order.ID)
		}
		return tx.Create(&review).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("courier rated",
		zap.Uint("order_id", order.ID),
		zap.Uint("courier_id", review.CourierID),
		zap.Int("rating", rating))

	ev := orderEvent(events.TypeCourierRated, order, order.Status, p)
	ev.Rating = rating
	s.publish(ctx, ev)
	return &review, nil
}

// CheckCourierReview returns the review left for courierID on orderID. It never creates one.
func (s *ReviewService) CheckCourierReview(ctx context.Context, p models.Principal, orderID, courierID uint) (*models.CourierReview, error) {
	if _, err := s.visibleOrder(ctx, p, orderID); err != nil {
		return nil, err
	}

	var review models.CourierReview
	err := s.db.WithContext(ctx).
		Where("order_id = ? AND courier_id = ?", orderID, courierID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no review for courier %d on order %d", models.ErrNotFound, courierID, orderID)
		}
		return nil, err
	}
	return &review, nil
}

// AverageRating is the mean of all reviews left for a courier, 0 when there are none.
func AverageRating(ctx context.Context, db *gorm.DB, courierID uint) (float64, error) {
	var avg sql.NullFloat64
	err := db.WithContext(ctx).Model(&models.CourierReview{}).
		Select("AVG(rating)").
		Where("courier_id = ?", courierID).
		Row().Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}
