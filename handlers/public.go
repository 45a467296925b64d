package handlers

import (
	"net/http"

	"food-delivery-backend/models"
	"food-delivery-backend/services"
	"food-delivery-backend/statemachine"

	"github.com/gin-gonic/gin"
)

// ListRestaurants returns restaurants, optionally filtered by cuisine, name or open state
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.restaurants.List(c.Request.Context(), services.RestaurantFilter{
		Cuisine:  c.Query("cuisine"),
		Search:   c.Query("search"),
		OpenOnly: c.Query("open") == "true",
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(restaurants),
		"restaurants": restaurants,
	})
}

// GetRestaurant returns a single restaurant with its menu
func (h *Handler) GetRestaurant(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	restaurant, err := h.restaurants.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetMenu returns the menu for a specific restaurant
func (h *Handler) GetMenu(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	items, err := h.restaurants.Menu(c.Request.Context(), id, services.MenuFilter{
		Category: c.Query("category"),
		VegOnly:  c.Query("is_veg") == "true",
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant_id": id,
		"count":         len(items),
		"menu":          items,
	})
}

// GetStateMachineInfo returns the order lifecycle graph
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	var terminal []models.OrderStatus
	for _, s := range models.AllStatuses {
		if s.IsTerminal() {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"statuses":        models.AllStatuses,
		"terminal_states": terminal,
		"description":     "Food Delivery Order Lifecycle State Machine",
	})
}
