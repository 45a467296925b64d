package handlers

import (
	"errors"
	"io"
	"net/http"

	"food-delivery-backend/middleware"

	"github.com/gin-gonic/gin"
)

type ReviewRequest struct {
	ReviewText string `json:"review_text" binding:"max=2000"`
}

// bindReview accepts an empty body as a rating without text.
func bindReview(c *gin.Context) (ReviewRequest, error) {
	var req ReviewRequest
	if c.Request.ContentLength == 0 {
		return req, nil
	}
	// chunked requests report an unknown length; an empty one decodes to EOF
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}

// AddFavoriteOrder bookmarks one of the customer's orders
func (h *Handler) AddFavoriteOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.favorites.AddFavorite(c.Request.Context(), middleware.MustPrincipal(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order added to favorites", "order_id": id, "is_favorite": true})
}

// RemoveFavoriteOrder drops a bookmark; removing a missing one succeeds
func (h *Handler) RemoveFavoriteOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.favorites.RemoveFavorite(c.Request.Context(), middleware.MustPrincipal(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order removed from favorites", "order_id": id, "is_favorite": false})
}

// ListFavoriteOrders returns the customer's favorited orders
func (h *Handler) ListFavoriteOrders(c *gin.Context) {
	orders, err := h.favorites.ListFavorites(c.Request.Context(), middleware.MustPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// RateOrder records the customer's rating of a delivered order
func (h *Handler) RateOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	rating, err := queryRating(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	req, err := bindReview(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.reviews.RateOrder(c.Request.Context(), middleware.MustPrincipal(c), id, rating, req.ReviewText)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Thanks for rating your order", "order": order})
}
