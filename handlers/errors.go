package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"food-delivery-backend/middleware"
	"food-delivery-backend/models"
	"food-delivery-backend/statemachine"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorKinds is checked in order; the first match wins. ErrConflict precedes
// ErrOrderNotEligible because a lost race matches both.
var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{models.ErrConflict, http.StatusConflict, "CONFLICT"},
	{models.ErrValidation, http.StatusBadRequest, "VALIDATION"},
	{models.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
	{models.ErrOrderNotEligible, http.StatusUnprocessableEntity, "ORDER_NOT_ELIGIBLE"},
	{models.ErrCourierUnavailable, http.StatusUnprocessableEntity, "COURIER_UNAVAILABLE"},
	{models.ErrAlreadyRated, http.StatusConflict, "ALREADY_RATED"},
	{models.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
	{models.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{models.ErrForbidden, http.StatusForbidden, "AUTHORIZATION"},
	{models.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
}

// respondError writes err as {"error", "kind"}. Unknown errors become a 500 whose
// detail stays in the log.
func (h *Handler) respondError(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			body := gin.H{"error": err.Error(), "kind": k.kind}
			var ite *models.InvalidTransitionError
			if errors.As(err, &ite) {
				body["current_status"] = ite.From
				body["valid_next_states"] = statemachine.ValidTransitionsFrom(ite.From)
			}
			c.JSON(k.status, body)
			return
		}
	}

	_ = c.Error(err)
	h.logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "kind": "INTERNAL"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "VALIDATION"})
}

func parseUint(raw, name string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", models.ErrValidation, name, raw)
	}
	return uint(n), nil
}

// pathID reads a positive integer path parameter.
func pathID(c *gin.Context, name string) (uint, error) {
	return parseUint(c.Param(name), name)
}

// queryID reads a required positive integer query parameter.
func queryID(c *gin.Context, name string) (uint, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, fmt.Errorf("%w: query parameter %s is required", models.ErrValidation, name)
	}
	return parseUint(raw, name)
}

func queryRating(c *gin.Context) (int, error) {
	raw := c.Query("rating")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: rating must be an integer, got %q", models.ErrValidation, raw)
	}
	return n, nil
}
