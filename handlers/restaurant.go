package handlers

import (
	"net/http"

	"food-delivery-backend/middleware"
	"food-delivery-backend/services"

	"github.com/gin-gonic/gin"
)

// ── Restaurant Management ────────────────────────────────────────────────────

// CreateRestaurant lets a restaurant-role user create their restaurant
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req services.CreateRestaurantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	restaurant, err := h.restaurants.Create(c.Request.Context(), middleware.MustPrincipal(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": restaurant})
}

// GetMyRestaurant fetches the restaurant owned by the logged-in user
func (h *Handler) GetMyRestaurant(c *gin.Context) {
	restaurant, err := h.restaurants.Mine(c.Request.Context(), middleware.MustPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// UpdateRestaurant updates restaurant details
func (h *Handler) UpdateRestaurant(c *gin.Context) {
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	restaurant, err := h.restaurants.Update(c.Request.Context(), middleware.MustPrincipal(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

// ── Menu Management ─────────────────────────────────────────────────────────

// AddMenuItem adds a new item to the restaurant's menu
func (h *Handler) AddMenuItem(c *gin.Context) {
	var req services.MenuItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.restaurants.AddMenuItem(c.Request.Context(), middleware.MustPrincipal(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// UpdateMenuItem updates a menu item (only by the owner)
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	itemID, err := pathID(c, "itemId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.restaurants.UpdateMenuItem(c.Request.Context(), middleware.MustPrincipal(c), itemID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

// DeleteMenuItem removes a menu item
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	itemID, err := pathID(c, "itemId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.restaurants.DeleteMenuItem(c.Request.Context(), middleware.MustPrincipal(c), itemID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}
