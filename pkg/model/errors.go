package model

import "errors"

// Sentinel errors for the marketplace core. All of them are recoverable:
// handlers map them to user-visible notifications, never to a process exit.
var (
	// ErrValidation signals a missing or malformed required field.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized signals a non-owner attempting a listing mutation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSelfPurchase signals an owner adding their own listing to the cart.
	ErrSelfPurchase = errors.New("cannot purchase own listing")

	// ErrLoginRequired signals an anonymous cart or checkout attempt.
	ErrLoginRequired = errors.New("login required")

	// ErrInvalidTransition signals an illegal fulfillment-status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound signals an unknown order or product id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPaymentMethod signals an unsupported checkout payment method.
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")

	// ErrCartEmpty signals a checkout attempt over an empty cart.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrRateLimited signals too many payment prompts to one number.
	ErrRateLimited = errors.New("rate limited")
)
