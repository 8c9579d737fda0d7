package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/internal/metrics"
	"github.com/agrisoko/marketplace/internal/store"
	"github.com/agrisoko/marketplace/pkg/eventbus"
	"github.com/agrisoko/marketplace/pkg/model"
)

// NewListing is the producer's listing submission.
type NewListing struct {
	Name     string
	Price    int64
	Category string
	Image    string
}

// Validate checks the listing form fields.
func (l NewListing) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: listing name is required", model.ErrValidation)
	}
	if l.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than 0", model.ErrValidation)
	}
	return nil
}

// Service holds the current set of listed products and gates owner-only
// mutations. State lives in memory, hydrated once from the store;
// every successful mutation persists the full catalog and publishes a
// notification event.
type Service struct {
	store  store.Store
	bus    *eventbus.EventBus
	logger *zap.Logger

	mu       sync.RWMutex
	products []model.Product
}

// New creates the catalog service and hydrates it from persisted state.
func New(ctx context.Context, st store.Store, bus *eventbus.EventBus, logger *zap.Logger) (*Service, error) {
	products, err := st.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: hydrate: %w", err)
	}

	return &Service{
		store:    st,
		bus:      bus,
		logger:   logger,
		products: products,
	}, nil
}

// List returns the catalog in most-recent-first order. Each returned
// product is an independent copy.
func (s *Service) List(ctx context.Context) []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.Clone())
	}
	return out
}

// Get returns the product with the given id.
func (s *Service) Get(ctx context.Context, productID string) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == productID {
			return p.Clone(), nil
		}
	}
	return model.Product{}, fmt.Errorf("%w: product %s", model.ErrNotFound, productID)
}

// AddListing publishes a new listing owned by ownerProfile. The seller
// snapshot is taken from the profile at creation and never changes.
// New listings are prepended: most-recent-first ordering is an
// observable contract of the catalog.
func (s *Service) AddListing(ctx context.Context, listing NewListing, owner model.UserProfile) (model.Product, error) {
	if err := listing.Validate(); err != nil {
		metrics.IncListingMutation("add", "rejected")
		return model.Product{}, err
	}

	product := model.Product{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(listing.Name),
		Price:     listing.Price,
		Category:  listing.Category,
		Image:     listing.Image,
		Seller:    model.SellerFromProfile(owner),
		CreatedAt: time.Now().UTC(),
	}

	// Persist first, swap after: a failed store write must leave both
	// the in-memory catalog and the stored catalog on the previous state.
	s.mu.Lock()
	next := make([]model.Product, 0, len(s.products)+1)
	next = append(next, product)
	next = append(next, s.products...)
	if err := s.store.SaveCatalog(ctx, cloneProducts(next)); err != nil {
		s.mu.Unlock()
		metrics.IncError("catalog", "persist_failed")
		return model.Product{}, fmt.Errorf("catalog: persist add: %w", err)
	}
	s.products = next
	s.mu.Unlock()

	s.logger.Info("catalog.listing_added",
		zap.String("product_id", product.ID),
		zap.String("seller_id", product.Seller.ID),
		zap.Int64("price", product.Price))
	metrics.IncListingMutation("add", "ok")
	s.bus.Publish(model.ListingCreatedEvent{Product: product.Clone()})

	return product, nil
}

// RemoveListing deletes a listing. Only the owning seller may remove
// it; any other requester gets ErrUnauthorized and the catalog is
// unchanged.
func (s *Service) RemoveListing(ctx context.Context, productID, requesterID string) error {
	removed, err := s.delist(ctx, productID, requesterID, "remove")
	if err != nil {
		return err
	}

	s.bus.Publish(model.ListingRemovedEvent{
		ProductID:   removed.ID,
		ProductName: removed.Name,
		SellerID:    removed.Seller.ID,
	})
	return nil
}

// MarkSold marks a listing as sold, which delists it. Sold is not a
// separate catalog state: a sold product simply leaves the catalog.
// Same authorization rule as RemoveListing.
func (s *Service) MarkSold(ctx context.Context, productID, requesterID string) error {
	sold, err := s.delist(ctx, productID, requesterID, "mark_sold")
	if err != nil {
		return err
	}

	s.bus.Publish(model.ListingSoldEvent{
		ProductID:   sold.ID,
		ProductName: sold.Name,
		SellerID:    sold.Seller.ID,
	})
	return nil
}

// delist removes the product after the ownership check and persists the
// catalog. Returns the removed product for event payloads.
func (s *Service) delist(ctx context.Context, productID, requesterID, action string) (model.Product, error) {
	s.mu.Lock()

	idx := -1
	for i, p := range s.products {
		if p.ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		metrics.IncListingMutation(action, "not_found")
		return model.Product{}, fmt.Errorf("%w: product %s", model.ErrNotFound, productID)
	}

	target := s.products[idx]
	if !IsOwner(requesterID, target.Seller.ID) {
		s.mu.Unlock()
		s.logger.Warn("catalog.mutation_unauthorized",
			zap.String("action", action),
			zap.String("product_id", productID),
			zap.String("requester_id", requesterID))
		metrics.IncListingMutation(action, "unauthorized")
		return model.Product{}, fmt.Errorf("%w: only the listing owner may %s", model.ErrUnauthorized, action)
	}

	next := make([]model.Product, 0, len(s.products)-1)
	next = append(next, s.products[:idx]...)
	next = append(next, s.products[idx+1:]...)
	if err := s.store.SaveCatalog(ctx, cloneProducts(next)); err != nil {
		s.mu.Unlock()
		metrics.IncError("catalog", "persist_failed")
		return model.Product{}, fmt.Errorf("catalog: persist %s: %w", action, err)
	}
	s.products = next
	s.mu.Unlock()

	s.logger.Info("catalog.listing_delisted",
		zap.String("action", action),
		zap.String("product_id", productID))
	metrics.IncListingMutation(action, "ok")
	return target, nil
}

// cloneProducts copies the product slice for persistence.
func cloneProducts(products []model.Product) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		out = append(out, p.Clone())
	}
	return out
}
