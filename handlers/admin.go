package handlers

import (
	"net/http"

	"food-delivery-backend/models"
	"food-delivery-backend/services"

	"github.com/gin-gonic/gin"
)

// AdminGetSummary returns order counts by status and delivered revenue
func (h *Handler) AdminGetSummary(c *gin.Context) {
	sum, err := h.orders.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// AdminGetAllUsers returns all users, optionally by role
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// AdminGetAllRestaurants returns every restaurant, open or not
func (h *Handler) AdminGetAllRestaurants(c *gin.Context) {
	restaurants, err := h.restaurants.List(c.Request.Context(), services.RestaurantFilter{})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// AdminBanUser blocks a user from logging in
func (h *Handler) AdminBanUser(c *gin.Context) {
	h.setBanned(c, true)
}

// AdminUnbanUser lifts a ban
func (h *Handler) AdminUnbanUser(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *Handler) setBanned(c *gin.Context, banned bool) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.users.SetBanned(c.Request.Context(), id, banned)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "is_banned": banned})
}
