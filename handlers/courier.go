package handlers

import (
	"net/http"

	"food-delivery-backend/middleware"
	"food-delivery-backend/models"
	"food-delivery-backend/services"

	"github.com/gin-gonic/gin"
)

// GetAvailableCouriers lists couriers that can take a new order right now
func (h *Handler) GetAvailableCouriers(c *gin.Context) {
	couriers, err := h.couriers.ListAvailable(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(couriers), "couriers": couriers})
}

// GetCourierProfile returns the logged-in courier's profile and average rating
func (h *Handler) GetCourierProfile(c *gin.Context) {
	courier, err := h.couriers.Profile(c.Request.Context(), middleware.MustPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courier": courier})
}

// UpdateCourierStatus toggles the courier's online and available flags
func (h *Handler) UpdateCourierStatus(c *gin.Context) {
	var req services.CourierStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	courier, err := h.couriers.UpdateStatus(c.Request.Context(), middleware.MustPrincipal(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Courier status updated", "courier": courier})
}

// GetMyDeliveries returns orders waiting for the courier's answer or on the way
func (h *Handler) GetMyDeliveries(c *gin.Context) {
	orders, err := h.couriers.ActiveOrders(c.Request.Context(), middleware.MustPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// RespondToAssignment records ACCEPT or REJECT from the assigned courier
func (h *Handler) RespondToAssignment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	response := models.CourierResponse(c.Query("status"))

	order, err := h.assignment.Respond(c.Request.Context(), middleware.MustPrincipal(c), id, response)
	if err != nil {
		h.respondError(c, err)
		return
	}

	msg := "Order accepted, on your way"
	if response == models.ResponseReject {
		msg = "Order rejected"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "status": order.Status, "order_id": order.ID})
}

// RateCourier records the customer's rating of the courier who delivered an order
func (h *Handler) RateCourier(c *gin.Context) {
	orderID, err := queryID(c, "orderPk")
	if err != nil {
		h.respondError(c, err)
		return
	}
	rating, err := queryRating(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var courierID *uint
	if _, ok := c.GetQuery("courierPk"); ok {
		id, err := queryID(c, "courierPk")
		if err != nil {
			h.respondError(c, err)
			return
		}
		courierID = &id
	}
	req, err := bindReview(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	review, err := h.reviews.RateCourier(c.Request.Context(), middleware.MustPrincipal(c), orderID, courierID, rating, req.ReviewText)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Thanks for rating your courier", "review": review})
}

// CheckCourierReview returns the review for an order's courier, or 404 when none exists
func (h *Handler) CheckCourierReview(c *gin.Context) {
	orderID, err := queryID(c, "orderPk")
	if err != nil {
		h.respondError(c, err)
		return
	}
	courierID, err := queryID(c, "courierPk")
	if err != nil {
		h.respondError(c, err)
		return
	}
	review, err := h.reviews.CheckCourierReview(c.Request.Context(), middleware.MustPrincipal(c), orderID, courierID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}
