package services

import (
	"context"
	"fmt"

	"food-delivery-backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteService keeps each customer's set of bookmarked orders. Adding and removing
// are idempotent and ignore the order's status.
type FavoriteService struct {
	base
}

func NewFavoriteService(d Deps) *FavoriteService {
	return &FavoriteService{base: newBase(d)}
}

func (s *FavoriteService) AddFavorite(ctx context.Context, p models.Principal, orderID uint) error {
	if p.Role != models.RoleCustomer {
		return fmt.Errorf("%w: only customers keep favorites", models.ErrForbidden)
	}
	if _, err := s.visibleOrder(ctx, p, orderID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.FavoriteOrder{CustomerID: p.UserID, OrderID: orderID}).Error
	if err != nil {
		return err
	}

	s.logger.Debug("order favorited", zap.Uint("order_id", orderID), zap.Uint("customer_id", p.UserID))
	return nil
}

func (s *FavoriteService) RemoveFavorite(ctx context.Context, p models.Principal, orderID uint) error {
	if p.Role != models.RoleCustomer {
		return fmt.Errorf("%w: only customers keep favorites", models.ErrForbidden)
	}
	err := s.db.WithContext(ctx).
		Where("customer_id = ? AND order_id = ?", p.UserID, orderID).
		Delete(&models.FavoriteOrder{}).Error
	if err != nil {
		return err
	}

	s.logger.Debug("order unfavorited", zap.Uint("order_id", orderID), zap.Uint("customer_id", p.UserID))
	return nil
}

// ListFavorites returns the customer's favorited orders, newest favorite first.
func (s *FavoriteService) ListFavorites(ctx context.Context, p models.Principal) ([]models.Order, error) {
	if p.Role != models.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers keep favorites", models.ErrForbidden)
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").Preload("Restaurant").
		Joins("JOIN favorite_orders ON favorite_orders.order_id = orders.id").
		Where("favorite_orders.customer_id = ? AND orders.customer_id = ?", p.UserID, p.UserID).
		Order("favorite_orders.created_at desc, favorite_orders.id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].IsFavorite = true
	}
	return orders, nil
}

// markFavorites sets IsFavorite on the customer's orders in place.
func markFavorites(ctx context.Context, db *gorm.DB, customerID uint, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uint, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	var favIDs []uint
	err := db.WithContext(ctx).Model(&models.FavoriteOrder{}).
		Where("customer_id = ? AND order_id IN ?", customerID, ids).
		Pluck("order_id", &favIDs).Error
	if err != nil {
		return err
	}

	fav := make(map[uint]bool, len(favIDs))
	for _, id := range favIDs {
		fav[id] = true
	}
	for i := range orders {
		orders[i].IsFavorite = fav[orders[i].ID]
	}
	return nil
}
