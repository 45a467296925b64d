package statemachine

import (
	"food-delivery-backend/models"
)

// Transition defines a valid state change and the roles that may perform it
type Transition struct {
	From   models.OrderStatus `json:"from"`
	To     models.OrderStatus `json:"to"`
	Actors []models.UserRole  `json:"actors"`
}

var (
	restaurantOnly = []models.UserRole{models.RoleRestaurant}
	dispatch       = []models.UserRole{models.RoleAdmin, models.RoleCourier}
)

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Kitchen side
	{From: models.StatusPlaced, To: models.StatusConfirmed, Actors: restaurantOnly},
	{From: models.StatusPlaced, To: models.StatusRejected, Actors: restaurantOnly},
	{From: models.StatusConfirmed, To: models.StatusPreparing, Actors: restaurantOnly},
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actors: restaurantOnly},
	{From: models.StatusPreparing, To: models.StatusReadyForPickup, Actors: restaurantOnly},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actors: restaurantOnly},
	{From: models.StatusReadyForPickup, To: models.StatusCancelled, Actors: restaurantOnly},
	// Delivery side
	{From: models.StatusReadyForPickup, To: models.StatusAssigned, Actors: dispatch},
	{From: models.StatusAssigned, To: models.StatusInTransit, Actors: dispatch},
	{From: models.StatusInTransit, To: models.StatusDelivered, Actors: dispatch},
	// Courier turns the assignment down
	{From: models.StatusAssigned, To: models.StatusReadyForPickup, Actors: dispatch},
}

type edge struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// Build a lookup map for O(1) validation
var edges = func() map[edge][]models.UserRole {
	m := make(map[edge][]models.UserRole, len(validTransitions))
	for _, t := range validTransitions {
		m[edge{t.From, t.To}] = t.Actors
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// IsEdge reports whether from → to exists in the graph regardless of actor.
func IsEdge(from, to models.OrderStatus) bool {
	_, ok := edges[edge{from, to}]
	return ok
}

// CanTransition reports whether actor may move an order from current to requested.
func CanTransition(current, requested models.OrderStatus, actor models.UserRole) bool {
	return Check(current, requested, actor) == nil
}

// Check is CanTransition with a reason: *models.InvalidTransitionError when the edge does
// not exist, *models.AuthorizationError when it exists but actor may not take it.
func Check(current, requested models.OrderStatus, actor models.UserRole) error {
	actors, ok := edges[edge{current, requested}]
	if !ok {
		return &models.InvalidTransitionError{From: current, To: requested, Actor: actor}
	}
	for _, a := range actors {
		if a == actor {
			return nil
		}
	}
	return &models.AuthorizationError{From: current, To: requested, Actor: actor}
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	for i, t := range validTransitions {
		t.Actors = append([]models.UserRole(nil), t.Actors...)
		out[i] = t
	}
	return out
}
