package services

import (
	"context"
	"errors"
	"fmt"

	"food-delivery-backend/events"
	"food-delivery-backend/models"
	"food-delivery-backend/statemachine"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderItemInput struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1"`
}

type PlaceOrderInput struct {
	RestaurantID    uint             `json:"restaurant_id" binding:"required"`
	DeliveryAddress string           `json:"delivery_address" binding:"required"`
	Notes           string           `json:"notes"`
	Items           []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Status models.OrderStatus
	Search string
}

// OrderSummary is the admin dashboard aggregate.
type OrderSummary struct {
	ByStatus     map[models.OrderStatus]int `json:"order_summary"`
	Count        int                        `json:"count"`
	TotalRevenue decimal.Decimal            `json:"total_revenue"`
}

type OrderService struct {
	base
}

func NewOrderService(d Deps) *OrderService {
	return &OrderService{base: newBase(d)}
}

// PlaceOrder creates a new order at PLACED with price snapshots from the current menu.
func (s *OrderService) PlaceOrder(ctx context.Context, p models.Principal, in PlaceOrderInput) (*models.Order, error) {
	if p.Role != models.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers place orders", models.ErrForbidden)
	}
	if in.DeliveryAddress == "" {
		return nil, fmt.Errorf("%w: delivery address is required", models.ErrValidation)
	}

	order, err := s.createOrder(ctx, p, in, nil, "Order placed by customer")
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("customer_id", p.UserID),
		zap.String("total", order.TotalPrice.StringFixed(2)))
	s.publish(ctx, orderEvent(events.TypeOrderPlaced, order, "", p))

	return order, nil
}

// Reorder creates a new PLACED order with the restaurant, items and quantities of a
// historical one, priced at today's menu.
func (s *OrderService) Reorder(ctx context.Context, p models.Principal, orderID uint) (*models.Order, error) {
	if p.Role != models.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers reorder", models.ErrForbidden)
	}
	src, err := s.visibleOrder(ctx, p, orderID)
	if err != nil {
		return nil, err
	}

	in := PlaceOrderInput{
		RestaurantID:    src.RestaurantID,
		DeliveryAddress: src.DeliveryAddress,
		Notes:           src.Notes,
	}
	for _, it := range src.Items {
		in.Items = append(in.Items, OrderItemInput{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}

	order, err := s.createOrder(ctx, p, in, &src.ID, fmt.Sprintf("Reorder of order %d", src.ID))
	if err != nil {
		return nil, err
	}

	s.logger.Info("order reordered", zap.Uint("order_id", order.ID), zap.Uint("source_order_id", src.ID))
	s.publish(ctx, orderEvent(events.TypeOrderPlaced, order, "", p))

	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, p models.Principal, in PlaceOrderInput, from *uint, note string) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", models.ErrValidation)
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		if err := tx.First(&restaurant, in.RestaurantID).Error; err != nil {
			return dbErr(err, "restaurant", in.RestaurantID)
		}
		if !restaurant.IsOpen {
			return fmt.Errorf("%w: restaurant is currently closed", models.ErrValidation)
		}

		items, err := buildItems(tx, restaurant.ID, in.Items)
		if err != nil {
			return err
		}

		order = models.Order{
			CustomerID:      p.UserID,
			RestaurantID:    restaurant.ID,
			Status:          models.StatusPlaced,
			TotalPrice:      models.SumItems(items),
			DeliveryAddress: in.DeliveryAddress,
			Notes:           in.Notes,
			ReorderedFromID: from,
			Items:           items,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPlaced,
			ChangedBy: p.UserID,
			ActorRole: p.Role,
			Note:      note,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.loadOrder(ctx, order.ID)
}

// buildItems snapshots the current menu price of each requested item.
func buildItems(tx *gorm.DB, restaurantID uint, reqItems []OrderItemInput) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(reqItems))
	for _, req := range reqItems {
		if req.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity for menu item %d must be at least 1", models.ErrValidation, req.MenuItemID)
		}
		var menuItem models.MenuItem
		if err := tx.First(&menuItem, req.MenuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: menu item %d not found", models.ErrValidation, req.MenuItemID)
			}
			return nil, err
		}
		if menuItem.RestaurantID != restaurantID {
			return nil, fmt.Errorf("%w: menu item %d does not belong to this restaurant", models.ErrValidation, menuItem.ID)
		}
		if !menuItem.IsAvailable {
			return nil, fmt.Errorf("%w: menu item '%s' is not available", models.ErrValidation, menuItem.Name)
		}
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Quantity:   req.Quantity,
			UnitPrice:  menuItem.Price,
			Name:       menuItem.Name,
		})
	}
	return items, nil
}

// ListOrders returns the orders visible to p, newest first.
func (s *OrderService) ListOrders(ctx context.Context, p models.Principal, f OrderFilter) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Preload("Items").Preload("Restaurant").Preload("Courier")

	switch p.Role {
	case models.RoleAdmin:
	case models.RoleCustomer:
		query = query.Where("orders.customer_id = ?", p.UserID)
	case models.RoleRestaurant:
		query = query.Where("orders.restaurant_id IN (?)",
			s.db.Model(&models.Restaurant{}).Select("id").Where("owner_id = ?", p.UserID))
	case models.RoleCourier:
		if p.CourierID == nil {
			return nil, fmt.Errorf("%w: no courier profile", models.ErrForbidden)
		}
		query = query.Where("orders.courier_id = ?", *p.CourierID)
	default:
		return nil, fmt.Errorf("%w: unknown role %s", models.ErrForbidden, p.Role)
	}

	if f.Status != "" {
		if !f.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, f.Status)
		}
		query = query.Where("orders.status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Joins("JOIN restaurants ON restaurants.id = orders.restaurant_id").
			Where("restaurants.name LIKE ? OR orders.delivery_address LIKE ?", like, like)
	}

	var orders []models.Order
	if err := query.Order("orders.created_at desc, orders.id desc").Find(&orders).Error; err != nil {
		return nil, err
	}

	if p.Role == models.RoleCustomer {
		if err := markFavorites(ctx, s.db, p.UserID, orders); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// GetOrder returns one order with its status history.
func (s *OrderService) GetOrder(ctx context.Context, p models.Principal, orderID uint) (*models.Order, error) {
	order, err := s.visibleOrder(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Where("order_id = ?", order.ID).
		Order("id asc").Find(&order.StatusHistory).Error; err != nil {
		return nil, err
	}
	if p.Role == models.RoleCustomer {
		one := []models.Order{*order}
		if err := markFavorites(ctx, s.db, p.UserID, one); err != nil {
			return nil, err
		}
		order.IsFavorite = one[0].IsFavorite
	}
	return order, nil
}

// UpdateStatus moves an order along the lifecycle graph on behalf of p.
func (s *OrderService) UpdateStatus(ctx context.Context, p models.Principal, orderID uint, to models.OrderStatus, note string) (*models.Order, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, to)
	}
	if to == models.StatusAssigned {
		return nil, fmt.Errorf("%w: assigning requires a courier, use assign-courier", models.ErrValidation)
	}

	order, err := s.visibleOrder(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if from == to {
		return nil, fmt.Errorf("%w: order is already %s", models.ErrValidation, to)
	}

	if err := statemachine.Check(from, to, p.Role); err != nil {
		s.logger.Warn("rejected status transition",
			zap.Uint("order_id", order.ID),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.String("actor", string(p.Role)),
			zap.Error(err))
		return nil, err
	}

	t := transition{order: order, to: to, actor: p, note: note}
	typ := events.TypeOrderStatusChanged
	if from == models.StatusAssigned && to == models.StatusReadyForPickup {
		t.set = map[string]interface{}{"courier_id": nil}
		typ = events.TypeCourierUnassigned
	}
	if err := s.commit(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.Uint("order_id", order.ID),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("actor", string(p.Role)))

	updated, err := s.loadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if from.IsActiveDelivery() {
		s.invalidateCouriers(ctx)
	}
	s.publish(ctx, orderEvent(typ, updated, from, p))
	return updated, nil
}

// Summary aggregates all orders by status and sums delivered revenue.
func (s *OrderService) Summary(ctx context.Context) (*OrderSummary, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Select("status", "total_price").Find(&orders).Error; err != nil {
		return nil, err
	}

	sum := &OrderSummary{
		ByStatus:     map[models.OrderStatus]int{},
		Count:        len(orders),
		TotalRevenue: decimal.Zero,
	}
	for _, o := range orders {
		sum.ByStatus[o.Status]++
		if o.Status == models.StatusDelivered {
			sum.TotalRevenue = sum.TotalRevenue.Add(o.TotalPrice)
		}
	}
	return sum, nil
}
