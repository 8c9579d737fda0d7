package ledger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/internal/metrics"
	"github.com/agrisoko/marketplace/internal/store"
	"github.com/agrisoko/marketplace/pkg/eventbus"
	"github.com/agrisoko/marketplace/pkg/model"
)

// Service stores committed orders and applies authorized status
// transitions. Orders are never deleted, only terminal-stated; payment
// status is set once at creation and has no public transition here —
// release/refund is an explicit extension point.
type Service struct {
	store  store.Store
	bus    *eventbus.EventBus
	logger *zap.Logger

	mu     sync.RWMutex
	orders []model.Order
}

// New creates the ledger service, hydrating persisted orders.
func New(ctx context.Context, st store.Store, bus *eventbus.EventBus, logger *zap.Logger) (*Service, error) {
	orders, err := st.LoadOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: hydrate: %w", err)
	}

	s := &Service{
		store:  st,
		bus:    bus,
		logger: logger,
		orders: orders,
	}
	s.refreshEscrowGauge()
	return s, nil
}

// Append commits a batch of orders from one checkout. The batch is
// appended atomically: the in-memory ledger and the persisted snapshot
// both gain all orders or none. The optional Postgres archive is
// best-effort and never blocks the commit.
func (s *Service) Append(ctx context.Context, batch []model.Order) error {
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	combined := append(append([]model.Order(nil), s.orders...), batch...)
	if err := s.store.SaveOrders(ctx, combined); err != nil {
		s.mu.Unlock()
		metrics.IncError("ledger", "persist_failed")
		return fmt.Errorf("ledger: persist batch: %w", err)
	}
	s.orders = combined
	s.mu.Unlock()

	for range batch {
		metrics.OrdersCreatedTotal.Inc()
	}
	s.refreshEscrowGauge()

	if err := s.store.ArchiveOrderBatch(ctx, batch); err != nil {
		s.logger.Warn("ledger.archive_failed", zap.Error(err))
	}

	s.logger.Info("ledger.batch_committed",
		zap.Int("orders", len(batch)),
		zap.String("first_order_id", batch[0].ID))
	return nil
}

// ListFor returns the orders visible to userName under the given view:
// orders they bought (view=buying) or sold (view=selling), in insertion
// order, unpaginated.
func (s *Service) ListFor(userName string, view model.View) []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Order
	for _, o := range s.orders {
		switch view {
		case model.ViewBuying:
			if o.Buyer == userName {
				out = append(out, o)
			}
		case model.ViewSelling:
			if o.Seller == userName {
				out = append(out, o)
			}
		}
	}
	return out
}

// Get returns the order with the given id.
func (s *Service) Get(orderID string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return model.Order{}, fmt.Errorf("%w: order %s", model.ErrNotFound, orderID)
}

// UpdateFulfillmentStatus applies a fulfillment transition. The legal
// moves are pending→{in_transit,cancelled} and
// in_transit→{delivered,cancelled}; delivered and cancelled are
// terminal. No ownership check is applied: any caller holding the
// order id may advance it, matching the observed dashboard behavior.
func (s *Service) UpdateFulfillmentStatus(ctx context.Context, orderID string, next model.FulfillmentStatus) (model.Order, error) {
	if !next.Valid() {
		return model.Order{}, fmt.Errorf("%w: unknown fulfillment status %q", model.ErrValidation, next)
	}

	s.mu.Lock()

	idx := -1
	for i, o := range s.orders {
		if o.ID == orderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return model.Order{}, fmt.Errorf("%w: order %s", model.ErrNotFound, orderID)
	}

	previous := s.orders[idx].Fulfillment
	if !previous.CanTransitionTo(next) {
		s.mu.Unlock()
		return model.Order{}, fmt.Errorf("%w: %s → %s", model.ErrInvalidTransition, previous, next)
	}

	s.orders[idx].Fulfillment = next
	updated := s.orders[idx]
	snapshot := append([]model.Order(nil), s.orders...)
	s.mu.Unlock()

	if err := s.store.SaveOrders(ctx, snapshot); err != nil {
		// Roll the in-memory state back so memory and storage agree.
		s.mu.Lock()
		s.orders[idx].Fulfillment = previous
		s.mu.Unlock()
		metrics.IncError("ledger", "persist_failed")
		return model.Order{}, fmt.Errorf("ledger: persist status: %w", err)
	}

	s.logger.Info("ledger.fulfillment_updated",
		zap.String("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))
	s.bus.Publish(model.FulfillmentUpdatedEvent{
		OrderID:  orderID,
		Previous: previous,
		Current:  next,
	})
	return updated, nil
}

// FinancialSummary aggregates prices over the given orders for a view:
// buying fills TotalSpent, selling fills TotalEarned.
func FinancialSummary(orders []model.Order, view model.View) model.Summary {
	var sum model.Summary
	for _, o := range orders {
		switch view {
		case model.ViewBuying:
			sum.TotalSpent += o.Price
		case model.ViewSelling:
			sum.TotalEarned += o.Price
		}
	}
	return sum
}

// SummaryFor computes both sides of the ledger for one user.
func (s *Service) SummaryFor(userName string) model.Summary {
	bought := FinancialSummary(s.ListFor(userName, model.ViewBuying), model.ViewBuying)
	sold := FinancialSummary(s.ListFor(userName, model.ViewSelling), model.ViewSelling)
	return model.Summary{
		TotalSpent:  bought.TotalSpent,
		TotalEarned: sold.TotalEarned,
	}
}

func (s *Service) refreshEscrowGauge() {
	s.mu.RLock()
	var held int64
	for _, o := range s.orders {
		if o.Payment == model.PaymentInEscrow {
			held += o.Price
		}
	}
	s.mu.RUnlock()
	metrics.EscrowHeldValue.Set(float64(held))
}
