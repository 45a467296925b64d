package services

import (
	"context"
	"fmt"

	"food-delivery-backend/events"
	"food-delivery-backend/models"
	"food-delivery-backend/statemachine"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AssignmentService hands READY_FOR_PICKUP orders to couriers and records their answer.
type AssignmentService struct {
	base
}

func NewAssignmentService(d Deps) *AssignmentService {
	return &AssignmentService{base: newBase(d)}
}

// AssignCourier gives an order waiting for pickup to an online, available courier.
// Assignment is a compare-and-swap on the order's status, so of two concurrent calls
// for the same order exactly one succeeds.
func (s *AssignmentService) AssignCourier(ctx context.Context, p models.Principal, orderID, courierID uint) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	courier, err := s.loadCourier(ctx, courierID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusReadyForPickup {
		return nil, fmt.Errorf("%w: order %d is %s, want %s",
			models.ErrOrderNotEligible, order.ID, order.Status, models.StatusReadyForPickup)
	}
	if err := statemachine.Check(order.Status, models.StatusAssigned, p.Role); err != nil {
		return nil, err
	}
	if p.Role == models.RoleCourier && (p.CourierID == nil || *p.CourierID != courier.ID) {
		return nil, fmt.Errorf("%w: couriers may only assign orders to themselves", models.ErrForbidden)
	}

	// availability is re-read here, never trusted from an earlier list
	if !courier.Eligible() {
		return nil, fmt.Errorf("%w: courier %d is offline or unavailable", models.ErrCourierUnavailable, courier.ID)
	}
	busy, err := s.hasActiveDelivery(ctx, courier.ID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, fmt.Errorf("%w: courier %d already has an active delivery", models.ErrCourierUnavailable, courier.ID)
	}

	err = s.commit(ctx, transition{
		order: order,
		to:    models.StatusAssigned,
		actor: p,
		note:  fmt.Sprintf("Assigned to courier %d", courier.ID),
		set:   map[string]interface{}{"courier_id": courier.ID},
		guard: func(q *gorm.DB) *gorm.DB { return q.Where("courier_id IS NULL") },
	})
	if err != nil {
		s.logger.Warn("courier assignment lost",
			zap.Uint("order_id", order.ID),
			zap.Uint("courier_id", courier.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("courier assigned",
		zap.Uint("order_id", order.ID),
		zap.Uint("courier_id", courier.ID),
		zap.Uint("actor_id", p.UserID))

	return s.afterChange(ctx, order.ID, models.StatusReadyForPickup, events.TypeCourierAssigned, p)
}

// UnassignCourier takes an ASSIGNED order back to READY_FOR_PICKUP.
func (s *AssignmentService) UnassignCourier(ctx context.Context, p models.Principal, orderID uint) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusAssigned {
		return nil, fmt.Errorf("%w: order %d is %s, want %s",
			models.ErrOrderNotEligible, order.ID, order.Status, models.StatusAssigned)
	}
	if p.Role != models.RoleAdmin {
		return nil, &models.AuthorizationError{From: order.Status, To: models.StatusReadyForPickup, Actor: p.Role}
	}

	err = s.commit(ctx, transition{
		order: order,
		to:    models.StatusReadyForPickup,
		actor: p,
		note:  "Courier unassigned",
		set:   map[string]interface{}{"courier_id": nil},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("courier unassigned", zap.Uint("order_id", order.ID), zap.Uint("actor_id", p.UserID))
	return s.afterChange(ctx, order.ID, models.StatusAssigned, events.TypeCourierUnassigned, p)
}

// Respond records the assigned courier's answer: ACCEPT starts the delivery, REJECT
// releases the order for another courier.
func (s *AssignmentService) Respond(ctx context.Context, p models.Principal, orderID uint, response models.CourierResponse) (*models.Order, error) {
	if !response.IsValid() {
		return nil, fmt.Errorf("%w: response must be %s or %s", models.ErrValidation, models.ResponseAccept, models.ResponseReject)
	}
	if p.Role != models.RoleCourier || p.CourierID == nil {
		return nil, fmt.Errorf("%w: only couriers respond to assignments", models.ErrForbidden)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusAssigned {
		return nil, fmt.Errorf("%w: order %d is %s, want %s",
			models.ErrOrderNotEligible, order.ID, order.Status, models.StatusAssigned)
	}
	if order.CourierID == nil || *order.CourierID != *p.CourierID {
		return nil, fmt.Errorf("%w: order %d is not assigned to you", models.ErrForbidden, order.ID)
	}

	courierID := *p.CourierID
	t := transition{
		order: order,
		actor: p,
		guard: func(q *gorm.DB) *gorm.DB { return q.Where("courier_id = ?", courierID) },
	}
	typ := events.TypeOrderStatusChanged
	switch response {
	case models.ResponseAccept:
		t.to = models.StatusInTransit
		t.note = "Courier accepted the order"
	case models.ResponseReject:
		t.to = models.StatusReadyForPickup
		t.note = "Courier rejected the order"
		t.set = map[string]interface{}{"courier_id": nil}
		typ = events.TypeCourierUnassigned
	}
	if err := statemachine.Check(order.Status, t.to, p.Role); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("courier responded",
		zap.Uint("order_id", order.ID),
		zap.Uint("courier_id", courierID),
		zap.String("response", string(response)))

	return s.afterChange(ctx, order.ID, models.StatusAssigned, typ, p)
}

func (s *AssignmentService) afterChange(ctx context.Context, orderID uint, from models.OrderStatus, typ string, p models.Principal) (*models.Order, error) {
	s.invalidateCouriers(ctx)
	updated, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, orderEvent(typ, updated, from, p))
	return updated, nil
}

func (s *AssignmentService) hasActiveDelivery(ctx context.Context, courierID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("courier_id = ? AND status IN ?", courierID,
			[]models.OrderStatus{models.StatusAssigned, models.StatusInTransit}).
		Count(&n).Error
	return n > 0, err
}
