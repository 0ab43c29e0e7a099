package store

import "errors"

var (
	ErrIdentityRequired = errors.New("identity required")
	ErrCartNotFound     = errors.New("cart not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrItemNotFound     = errors.New("item not found in cart")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrConflict         = errors.New("item was modified concurrently")
	ErrMergeFailed      = errors.New("cart merge failed")

	ErrOrderNotFound  = errors.New("order not found")
	ErrInvalidStatus  = errors.New("invalid order status")
	ErrEmptyOrder     = errors.New("order has no items")
	ErrInvalidLine    = errors.New("order line has invalid quantity or price")
	ErrAddressMissing = errors.New("address not found")
	ErrIntentInUse    = errors.New("payment intent belongs to another order")
)
