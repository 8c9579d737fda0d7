package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the canonical event envelope. All messages published to
// NATS follow this format.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	UserID        string          `json:"user_id,omitempty"`
	Topic         string          `json:"topic"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a payload into a canonical envelope, marshaling it
// as the raw JSON payload. Marshal failures surface to the caller.
func NewEnvelope(eventType, topic, userID string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:            uuid.New(),
		CorrelationID: uuid.New(),
		UserID:        userID,
		Topic:         topic,
		EventType:     eventType,
		Version:       "1.0.0",
		Timestamp:     time.Now().UTC(),
		Payload:       data,
	}, nil
}

// In-process events published on the eventbus. The notifier subscribes
// to these and turns them into user-visible notifications plus outbound
// NATS envelopes.

// ListingCreatedEvent is published when a producer publishes a listing.
type ListingCreatedEvent struct {
	Product Product `json:"product"`
}

// ListingRemovedEvent is published when the owner deletes a listing.
type ListingRemovedEvent struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	SellerID    string `json:"sellerId"`
}

// ListingSoldEvent is published when the owner marks a listing sold,
// which delists it from the catalog.
type ListingSoldEvent struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	SellerID    string `json:"sellerId"`
}

// OrdersCommittedEvent is published once per successful checkout with
// the full batch of created orders.
type OrdersCommittedEvent struct {
	BuyerID string  `json:"buyerId"`
	Orders  []Order `json:"orders"`
	Total   int64   `json:"total"`
}

// FulfillmentUpdatedEvent is published on every accepted fulfillment
// status transition.
type FulfillmentUpdatedEvent struct {
	OrderID  string            `json:"orderId"`
	Previous FulfillmentStatus `json:"previous"`
	Current  FulfillmentStatus `json:"current"`
}
