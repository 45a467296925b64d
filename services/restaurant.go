package services

import (
	"context"
	"errors"
	"fmt"

	"food-delivery-backend/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateRestaurantInput struct {
	Name        string `json:"name" binding:"required"`
	Cuisine     string `json:"cuisine"`
	Address     string `json:"address" binding:"required"`
	Description string `json:"description"`
}

type MenuItemInput struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Category    string          `json:"category"`
	IsVeg       bool            `json:"is_veg"`
}

type RestaurantFilter struct {
	Cuisine  string
	Search   string
	OpenOnly bool
}

type MenuFilter struct {
	Category string
	VegOnly  bool
}

var (
	restaurantFields = map[string]bool{"name": true, "cuisine": true, "address": true, "description": true, "is_open": true}
	menuItemFields   = map[string]bool{"name": true, "description": true, "price": true, "category": true, "is_veg": true, "is_available": true}
)

type RestaurantService struct {
	base
}

func NewRestaurantService(d Deps) *RestaurantService {
	return &RestaurantService{base: newBase(d)}
}

// Create registers the caller's restaurant. An owner has at most one.
func (s *RestaurantService) Create(ctx context.Context, p models.Principal, in CreateRestaurantInput) (*models.Restaurant, error) {
	if p.Role != models.RoleRestaurant {
		return nil, fmt.Errorf("%w: only restaurant accounts own restaurants", models.ErrForbidden)
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Restaurant{}).Where("owner_id = ?", p.UserID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: you already have a restaurant", models.ErrAlreadyExists)
	}

	restaurant := models.Restaurant{
		OwnerID:     p.UserID,
		Name:        in.Name,
		Cuisine:     in.Cuisine,
		Address:     in.Address,
		Description: in.Description,
		IsOpen:      true,
	}
	if err := s.db.WithContext(ctx).Create(&restaurant).Error; err != nil {
		return nil, err
	}

	s.logger.Info("restaurant created", zap.Uint("restaurant_id", restaurant.ID), zap.Uint("owner_id", p.UserID))
	return &restaurant, nil
}

// Mine returns the caller's restaurant with its menu.
func (s *RestaurantService) Mine(ctx context.Context, p models.Principal) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).Preload("MenuItems").Where("owner_id = ?", p.UserID).First(&restaurant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no restaurant found for your account", models.ErrNotFound)
		}
		return nil, err
	}
	return &restaurant, nil
}

// Update changes the caller's restaurant. Fields outside the editable set are ignored.
func (s *RestaurantService) Update(ctx context.Context, p models.Principal, fields map[string]interface{}) (*models.Restaurant, error) {
	restaurant, err := s.Mine(ctx, p)
	if err != nil {
		return nil, err
	}
	update := pick(fields, restaurantFields)
	if len(update) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", models.ErrValidation)
	}
	if err := s.db.WithContext(ctx).Model(restaurant).Updates(update).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, restaurant.ID)
}

func (s *RestaurantService) List(ctx context.Context, f RestaurantFilter) ([]models.Restaurant, error) {
	query := s.db.WithContext(ctx).Order("id asc")
	if f.Cuisine != "" {
		query = query.Where("cuisine LIKE ?", "%"+f.Cuisine+"%")
	}
	if f.Search != "" {
		query = query.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if f.OpenOnly {
		query = query.Where("is_open = ?", true)
	}
	var restaurants []models.Restaurant
	err := query.Find(&restaurants).Error
	return restaurants, err
}

func (s *RestaurantService) Get(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).Preload("MenuItems").First(&restaurant, id).Error; err != nil {
		return nil, dbErr(err, "restaurant", id)
	}
	return &restaurant, nil
}

func (s *RestaurantService) Menu(ctx context.Context, restaurantID uint, f MenuFilter) ([]models.MenuItem, error) {
	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).First(&restaurant, restaurantID).Error; err != nil {
		return nil, dbErr(err, "restaurant", restaurantID)
	}
	query := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("id asc")
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.VegOnly {
		query = query.Where("is_veg = ?", true)
	}
	var items []models.MenuItem
	err := query.Find(&items).Error
	return items, err
}

func (s *RestaurantService) AddMenuItem(ctx context.Context, p models.Principal, in MenuItemInput) (*models.MenuItem, error) {
	restaurant, err := s.Mine(ctx, p)
	if err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be greater than zero", models.ErrValidation)
	}
	item := models.MenuItem{
		RestaurantID: restaurant.ID,
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price.Round(2),
		Category:     in.Category,
		IsVeg:        in.IsVeg,
		IsAvailable:  true,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateMenuItem edits a menu item. Placed orders keep the price they were placed at.
func (s *RestaurantService) UpdateMenuItem(ctx context.Context, p models.Principal, itemID uint, fields map[string]interface{}) (*models.MenuItem, error) {
	item, err := s.ownedMenuItem(ctx, p, itemID)
	if err != nil {
		return nil, err
	}
	update := pick(fields, menuItemFields)
	if len(update) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", models.ErrValidation)
	}
	if raw, ok := update["price"]; ok {
		price, err := decimal.NewFromString(fmt.Sprint(raw))
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("%w: price must be a positive number", models.ErrValidation)
		}
		update["price"] = price.Round(2)
	}
	if err := s.db.WithContext(ctx).Model(item).Updates(update).Error; err != nil {
		return nil, err
	}
	return s.menuItem(ctx, item.ID)
}

func (s *RestaurantService) DeleteMenuItem(ctx context.Context, p models.Principal, itemID uint) error {
	item, err := s.ownedMenuItem(ctx, p, itemID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(item).Error
}

func (s *RestaurantService) menuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, dbErr(err, "menu item", id)
	}
	return &item, nil
}

func (s *RestaurantService) ownedMenuItem(ctx context.Context, p models.Principal, itemID uint) (*models.MenuItem, error) {
	item, err := s.menuItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	var n int64
	err = s.db.WithContext(ctx).Model(&models.Restaurant{}).
		Where("id = ? AND owner_id = ?", item.RestaurantID, p.UserID).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: you don't own this menu item", models.ErrForbidden)
	}
	return item, nil
}

func pick(fields map[string]interface{}, allowed map[string]bool) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range fields {
		if allowed[k] {
			out[k] = v
		}
	}
	return out
}
