package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrOrderNotEligible   = errors.New("order not eligible")
	ErrCourierUnavailable = errors.New("courier unavailable")
	ErrAlreadyRated       = errors.New("already rated")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflicting concurrent update")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAlreadyExists      = errors.New("already exists")
)

// InvalidTransitionError reports a status change with no edge in the lifecycle graph.
type InvalidTransitionError struct {
	From  OrderStatus
	To    OrderStatus
	Actor UserRole
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s requested by %s", e.From, e.To, e.Actor)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// AuthorizationError reports an existing edge the actor's role may not take.
type AuthorizationError struct {
	From  OrderStatus
	To    OrderStatus
	Actor UserRole
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %s may not move an order from %s to %s", e.Actor, e.From, e.To)
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrForbidden
}

// ConflictError is returned to the loser of a concurrent update. Err carries what the
// loser would have seen had it run second.
type ConflictError struct {
	OrderID uint
	Err     error
}

func (e *ConflictError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("order %d was modified concurrently", e.OrderID)
	}
	return fmt.Sprintf("order %d was modified concurrently: %v", e.OrderID, e.Err)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
