package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/internal/publisher"
	"github.com/agrisoko/marketplace/pkg/eventbus"
	"github.com/agrisoko/marketplace/pkg/model"
)

// Notifier turns in-process marketplace events into user-visible
// notifications and outbound NATS envelopes. Every successful catalog
// mutation, checkout settlement, and fulfillment transition flows
// through here; the publisher may be nil, in which case notifications
// are log-only.
type Notifier struct {
	logger *zap.Logger
	pub    *publisher.Publisher
}

// New creates the notifier and subscribes it to the bus.
func New(bus *eventbus.EventBus, pub *publisher.Publisher, logger *zap.Logger) *Notifier {
	n := &Notifier{logger: logger, pub: pub}

	bus.Subscribe(model.ListingCreatedEvent{}, func(event interface{}) {
		if e, ok := event.(model.ListingCreatedEvent); ok {
			n.listingCreated(e)
		}
	})
	bus.Subscribe(model.ListingRemovedEvent{}, func(event interface{}) {
		if e, ok := event.(model.ListingRemovedEvent); ok {
			n.listingRemoved(e)
		}
	})
	bus.Subscribe(model.ListingSoldEvent{}, func(event interface{}) {
		if e, ok := event.(model.ListingSoldEvent); ok {
			n.listingSold(e)
		}
	})
	bus.Subscribe(model.OrdersCommittedEvent{}, func(event interface{}) {
		if e, ok := event.(model.OrdersCommittedEvent); ok {
			n.ordersCommitted(e)
		}
	})
	bus.Subscribe(model.FulfillmentUpdatedEvent{}, func(event interface{}) {
		if e, ok := event.(model.FulfillmentUpdatedEvent); ok {
			n.fulfillmentUpdated(e)
		}
	})

	return n
}

func (n *Notifier) listingCreated(e model.ListingCreatedEvent) {
	n.emit("listing.created", e.Product.Seller.ID, e,
		fmt.Sprintf("Your listing %q is now live", e.Product.Name))
}

func (n *Notifier) listingRemoved(e model.ListingRemovedEvent) {
	n.emit("listing.removed", e.SellerID, e,
		fmt.Sprintf("Listing %q was removed", e.ProductName))
}

func (n *Notifier) listingSold(e model.ListingSoldEvent) {
	n.emit("listing.sold", e.SellerID, e,
		fmt.Sprintf("Listing %q was marked sold", e.ProductName))
}

func (n *Notifier) ordersCommitted(e model.OrdersCommittedEvent) {
	n.emit("orders.committed", e.BuyerID, e,
		fmt.Sprintf("Payment received: %d order(s) placed, funds held in escrow", len(e.Orders)))
}

func (n *Notifier) fulfillmentUpdated(e model.FulfillmentUpdatedEvent) {
	n.emit("order.fulfillment_updated", "", e,
		fmt.Sprintf("Order %s moved from %s to %s", e.OrderID, e.Previous, e.Current))
}

// emit logs the user-visible message and forwards the event to NATS.
func (n *Notifier) emit(eventType, userID string, payload any, message string) {
	n.logger.Info("notify.user",
		zap.String("event_type", eventType),
		zap.String("message", message))

	if err := n.pub.PublishEvent(context.Background(), eventType, userID, payload); err != nil {
		n.logger.Warn("notify.publish_failed",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
