package model

import (
	"fmt"
	"strings"
	"time"
)

// FulfillmentStatus is the delivery-progress dimension of an order.
// It is strictly separate from PaymentStatus; the two never mix values.
type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "pending"
	FulfillmentInTransit FulfillmentStatus = "in_transit"
	FulfillmentDelivered FulfillmentStatus = "delivered"
	FulfillmentCancelled FulfillmentStatus = "cancelled"
)

// fulfillmentTransitions holds the allowed fulfillment state machine.
// Delivered and Cancelled are terminal.
var fulfillmentTransitions = map[FulfillmentStatus][]FulfillmentStatus{
	FulfillmentPending:   {FulfillmentInTransit, FulfillmentCancelled},
	FulfillmentInTransit: {FulfillmentDelivered, FulfillmentCancelled},
	FulfillmentDelivered: {},
	FulfillmentCancelled: {},
}

// Valid returns true if the status is one of the known constants.
func (s FulfillmentStatus) Valid() bool {
	_, ok := fulfillmentTransitions[s]
	return ok
}

// Terminal returns true when no further transition is allowed.
func (s FulfillmentStatus) Terminal() bool {
	next, ok := fulfillmentTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s FulfillmentStatus) CanTransitionTo(next FulfillmentStatus) bool {
	for _, allowed := range fulfillmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ToFulfillmentStatus parses a wire value, tolerating case and separators
// ("In Transit" and "in-transit" both map to in_transit).
func ToFulfillmentStatus(s string) (FulfillmentStatus, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	status := FulfillmentStatus(norm)
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown fulfillment status %q", ErrValidation, s)
	}
	return status, nil
}

// PaymentStatus is the escrow dimension of an order. It is set exactly
// once at order creation (in_escrow) by the checkout path. Released and
// Refunded are modeled values reserved for the release/refund extension
// point; no public operation produces them yet.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentInEscrow PaymentStatus = "in_escrow"
	PaymentReleased PaymentStatus = "released"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid returns true if the status is one of the known constants.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentInEscrow, PaymentReleased, PaymentRefunded:
		return true
	default:
		return false
	}
}

// Order is the durable, fully denormalized record of a committed
// purchase. It carries name copies of buyer and seller, never references
// back to the product it came from.
type Order struct {
	ID          string            `json:"id"`
	Buyer       string            `json:"buyer"`
	Seller      string            `json:"seller"`
	Items       string            `json:"items"`
	Fulfillment FulfillmentStatus `json:"fulfillmentStatus"`
	Payment     PaymentStatus     `json:"paymentStatus"`
	Location    string            `json:"location,omitempty"`
	Price       int64             `json:"price"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// View selects which side of the ledger a query reads.
type View string

const (
	ViewBuying  View = "buying"
	ViewSelling View = "selling"
)

// ToView parses a wire value into a ledger view.
func ToView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buying":
		return ViewBuying, nil
	case "selling":
		return ViewSelling, nil
	default:
		return "", fmt.Errorf("%w: view must be 'buying' or 'selling'", ErrValidation)
	}
}

// Summary aggregates order prices per ledger view. Net balance
// (TotalEarned - TotalSpent) may be negative.
type Summary struct {
	TotalSpent  int64 `json:"totalSpent"`
	TotalEarned int64 `json:"totalEarned"`
}

// Net returns earned minus spent.
func (s Summary) Net() int64 {
	return s.TotalEarned - s.TotalSpent
}
