package order

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrEmptyOrder           = errors.New("order must contain at least one item")
	ErrInvalidItem          = errors.New("order item must have a name, a positive quantity and a non-negative price")
	ErrMissingContact       = errors.New("customer name, address and phone are required")
	ErrUnauthorized         = errors.New("unauthorized")
)
