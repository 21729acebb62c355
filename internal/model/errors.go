package model

import "errors"

var (
	// ErrMissingContact rejects captures with neither phone nor email; a
	// cart with no reachable shopper can never be reminded.
	ErrMissingContact = errors.New("capture requires a phone or email")

	// ErrEmptyCart rejects captures with no line items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrCodeExhausted is returned when coupon code generation keeps
	// colliding past its retry budget.
	ErrCodeExhausted = errors.New("coupon code space exhausted")
)
