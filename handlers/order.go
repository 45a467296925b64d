package handlers

import (
	"net/http"

	"food-delivery-backend/middleware"
	"food-delivery-backend/models"
	"food-delivery-backend/services"
	"food-delivery-backend/statemachine"

	"github.com/gin-gonic/gin"
)

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// PlaceOrder creates a new order (customer only)
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req services.PlaceOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.PlaceOrder(c.Request.Context(), middleware.MustPrincipal(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// ListOrders returns the orders visible to the caller's role
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), middleware.MustPrincipal(c), services.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		Search: c.Query("search"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrder returns one order with its status history
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":             order,
		"valid_next_states": validNextStates(order.Status),
	})
}

// UpdateOrderStatus moves an order along the lifecycle graph
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), middleware.MustPrincipal(c), id, req.Status, req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

// AssignCourier hands a READY_FOR_PICKUP order to a courier
func (h *Handler) AssignCourier(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	courierID, err := pathID(c, "courierId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.assignment.AssignCourier(c.Request.Context(), middleware.MustPrincipal(c), id, courierID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Courier assigned", "order": order})
}

// UnassignCourier releases an ASSIGNED order back to READY_FOR_PICKUP
func (h *Handler) UnassignCourier(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.assignment.UnassignCourier(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Courier unassigned", "order": order})
}

// Reorder places a new order with the items of an earlier one
func (h *Handler) Reorder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.orders.Reorder(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed again", "order": order})
}

func validNextStates(s models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus{}, statemachine.ValidTransitionsFrom(s)...)
}
