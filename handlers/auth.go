package handlers

import (
	"net/http"

	"food-delivery-backend/middleware"
	"food-delivery-backend/services"

	"github.com/gin-gonic/gin"
)

func accountJSON(acc *services.Account) gin.H {
	u := gin.H{
		"id":    acc.User.ID,
		"name":  acc.User.Name,
		"email": acc.User.Email,
		"role":  acc.User.Role,
	}
	if acc.CourierID != nil {
		u["courier_id"] = *acc.CourierID
	}
	return u
}

// Register creates a new user account
func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	acc, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.Generate(acc.Principal())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"token":   token,
		"user":    accountJSON(acc),
	})
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req services.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	acc, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.Generate(acc.Principal())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    accountJSON(acc),
	})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	acc, err := h.users.Get(c.Request.Context(), p.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": acc.User, "courier_id": acc.CourierID})
}
