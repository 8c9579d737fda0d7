package cart

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/internal/catalog"
	"github.com/agrisoko/marketplace/internal/metrics"
	"github.com/agrisoko/marketplace/internal/store"
	"github.com/agrisoko/marketplace/pkg/model"
)

// Service maintains the ordered list of cart lines for the active
// session. Lines are frozen snapshots: later product mutations never
// change a line's price or seller. The mutex doubles as the checkout
// critical section, so cart mutations cannot interleave with a commit.
type Service struct {
	store  store.Store
	logger *zap.Logger

	mu     sync.Mutex
	userID string
	lines  []model.CartLine
}

// New creates the cart service for the given user session, hydrating
// persisted lines.
func New(ctx context.Context, st store.Store, userID string, logger *zap.Logger) (*Service, error) {
	lines, err := st.LoadCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart: hydrate: %w", err)
	}

	return &Service{
		store:  st,
		logger: logger,
		userID: userID,
		lines:  lines,
	}, nil
}

// Add appends a frozen cart line built from product. Rejections:
// ErrLoginRequired for an anonymous user, ErrSelfPurchase when the
// user owns the listing.
func (s *Service) Add(ctx context.Context, product model.Product, currentUser model.UserProfile) error {
	if currentUser.ID == "" {
		metrics.IncCartOp("add", "login_required")
		return fmt.Errorf("%w: sign in to add items to the cart", model.ErrLoginRequired)
	}
	if catalog.IsOwner(currentUser.ID, product.Seller.ID) {
		metrics.IncCartOp("add", "self_purchase")
		return fmt.Errorf("%w: %s", model.ErrSelfPurchase, product.Name)
	}

	line := model.LineFromProduct(product)

	// Persist first, swap after: a failed store write must leave both
	// the in-memory cart and the stored cart on the previous state.
	s.mu.Lock()
	next := append(append([]model.CartLine(nil), s.lines...), line)
	if err := s.store.SaveCart(ctx, s.userID, next); err != nil {
		s.mu.Unlock()
		metrics.IncError("cart", "persist_failed")
		return fmt.Errorf("cart: persist add: %w", err)
	}
	s.lines = next
	s.mu.Unlock()

	s.logger.Info("cart.line_added",
		zap.String("product_id", line.ProductID),
		zap.Int64("price", line.Price))
	metrics.IncCartOp("add", "ok")
	return nil
}

// Remove deletes the line at position index. An out-of-range index is
// a silent no-op: no error, no effect.
func (s *Service) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.lines) {
		s.mu.Unlock()
		metrics.IncCartOp("remove", "out_of_range")
		return nil
	}
	next := append([]model.CartLine(nil), s.lines[:index]...)
	next = append(next, s.lines[index+1:]...)
	if err := s.store.SaveCart(ctx, s.userID, next); err != nil {
		s.mu.Unlock()
		metrics.IncError("cart", "persist_failed")
		return fmt.Errorf("cart: persist remove: %w", err)
	}
	s.lines = next
	s.mu.Unlock()

	metrics.IncCartOp("remove", "ok")
	return nil
}

// Lines returns a copy of the current cart lines in insertion order.
func (s *Service) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.CartLine(nil), s.lines...)
}

// Len returns the number of lines in the cart.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Total returns the sum of all line prices; 0 for an empty cart.
func (s *Service) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, line := range s.lines {
		total += line.Price
	}
	return total
}

// Commit runs fn over a snapshot of the cart under the cart lock and,
// only when fn succeeds, clears the cart. This is the checkout commit
// step: fn converts the lines into ledger orders, and batch-or-nothing
// semantics fall out of the single lock — either fn succeeds and the
// cart empties, or the cart is left exactly as it was.
func (s *Service) Commit(ctx context.Context, fn func(lines []model.CartLine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return model.ErrCartEmpty
	}

	snapshot := append([]model.CartLine(nil), s.lines...)
	if err := fn(snapshot); err != nil {
		return err
	}

	s.lines = nil
	if err := s.store.SaveCart(ctx, s.userID, []model.CartLine{}); err != nil {
		// Orders are already committed; an empty-cart persist failure
		// must not undo them. Log and keep the in-memory state cleared.
		s.logger.Error("cart.clear_persist_failed", zap.Error(err))
		metrics.IncError("cart", "clear_persist_failed")
	}

	metrics.IncCartOp("clear", "ok")
	return nil
}
