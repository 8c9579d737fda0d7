package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/internal/cart"
	"github.com/agrisoko/marketplace/internal/ledger"
	"github.com/agrisoko/marketplace/internal/metrics"
	"github.com/agrisoko/marketplace/internal/payment"
	"github.com/agrisoko/marketplace/pkg/eventbus"
	"github.com/agrisoko/marketplace/pkg/model"
)

// State is the phase of one checkout flow. The machine is short-lived
// and holds no persistence between steps: a crash mid-flow leaves the
// cart unchanged and creates no orders.
type State string

const (
	StateRequesting           State = "requesting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateConfirmed            State = "confirmed"
	StateCommitting           State = "committing"
	StateSettled              State = "settled"
	StateFailed               State = "failed"
)

// Request carries the buyer's checkout inputs.
type Request struct {
	Phone  string
	Method string
}

// Result reports the terminal state of a checkout flow. Failed is a
// state distinct from the error that caused it; callers receive both.
type Result struct {
	State  State
	Orders []model.Order
	Total  int64
}

// methodAliases are the accepted spellings of the single supported
// payment method. Anything else is rejected.
var methodAliases = map[string]struct{}{
	"mobile_money": {},
	"mobile-money": {},
	"mobile money": {},
	"mpesa":        {},
}

// Initiator drives the simulated mobile-payment protocol that commits
// a cart into ledger orders:
//
//	Requesting → AwaitingConfirmation → Confirmed → Committing → Settled
//
// Any failure short of Settled terminates in Failed with the cart
// untouched; the flow is batch-or-nothing and retryable from scratch.
type Initiator struct {
	cart     *cart.Service
	ledger   *ledger.Service
	gateway  payment.Gateway
	bus      *eventbus.EventBus
	logger   *zap.Logger
	operator string
}

// New creates the checkout initiator.
func New(cartSvc *cart.Service, ledgerSvc *ledger.Service, gw payment.Gateway, bus *eventbus.EventBus, logger *zap.Logger, operator string) *Initiator {
	return &Initiator{
		cart:     cartSvc,
		ledger:   ledgerSvc,
		gateway:  gw,
		bus:      bus,
		logger:   logger,
		operator: operator,
	}
}

// Run executes one checkout flow for the current user. The commit step
// runs inside the cart's critical section, so cart mutations cannot
// interleave with it. The simulated waits are non-cancellable; ctx is
// threaded through for the store writes only.
func (i *Initiator) Run(ctx context.Context, user model.UserProfile, req Request) (Result, error) {
	start := time.Now()

	result, err := i.run(ctx, user, req)
	if err != nil {
		i.logger.Warn("checkout.failed",
			zap.String("state", string(result.State)),
			zap.Error(err))
		metrics.IncCheckout(string(StateFailed))
		metrics.ObserveDuration(metrics.CheckoutDuration, start, string(StateFailed))
		return Result{State: StateFailed}, err
	}

	metrics.IncCheckout(string(StateSettled))
	metrics.ObserveDuration(metrics.CheckoutDuration, start, string(StateSettled))
	return result, nil
}

// run returns the in-progress state alongside any error so Run can
// report where the flow died.
func (i *Initiator) run(ctx context.Context, user model.UserProfile, req Request) (Result, error) {
	// Requesting: validate inputs before any side effect.
	result := Result{State: StateRequesting}
	if err := i.validate(user, req); err != nil {
		return result, err
	}

	total := i.cart.Total()
	prompt := payment.PromptRequest{
		Phone:    strings.TrimSpace(req.Phone),
		Amount:   total,
		Operator: i.operator,
	}

	// AwaitingConfirmation: the payment prompt goes out to the buyer's
	// device. Non-cancellable from here on.
	result.State = StateAwaitingConfirmation
	i.logger.Info("checkout.awaiting_confirmation",
		zap.String("buyer", user.Name),
		zap.Int64("total", total))
	if err := i.gateway.SendPrompt(ctx, prompt); err != nil {
		return result, fmt.Errorf("payment prompt: %w", err)
	}

	// Confirmed: the buyer approved on-device.
	result.State = StateConfirmed
	if err := i.gateway.AwaitApproval(ctx, prompt); err != nil {
		return result, fmt.Errorf("payment approval: %w", err)
	}

	// Committing: convert every cart line into one order, append them
	// to the ledger as a single batch, and clear the cart — all inside
	// the cart's lock.
	result.State = StateCommitting
	var orders []model.Order
	err := i.cart.Commit(ctx, func(lines []model.CartLine) error {
		orders = buildOrders(user, lines)
		return i.ledger.Append(ctx, orders)
	})
	if err != nil {
		return result, err
	}

	// The settled total is recomputed from the committed orders: the
	// cart may have changed during the approval window, and the result
	// must agree with what the ledger recorded.
	var settled int64
	for _, o := range orders {
		settled += o.Price
	}

	result.State = StateSettled
	result.Orders = orders
	result.Total = settled

	i.logger.Info("checkout.settled",
		zap.String("buyer", user.Name),
		zap.Int("orders", len(orders)),
		zap.Int64("total", settled))
	i.bus.Publish(model.OrdersCommittedEvent{
		BuyerID: user.ID,
		Orders:  orders,
		Total:   settled,
	})
	return result, nil
}

// validate enforces the checkout preconditions: an authenticated user,
// a non-empty cart, a destination phone, and the one supported method.
func (i *Initiator) validate(user model.UserProfile, req Request) error {
	if user.ID == "" {
		return fmt.Errorf("%w: checkout needs an authenticated buyer", model.ErrLoginRequired)
	}
	if i.cart.Len() == 0 {
		return model.ErrCartEmpty
	}
	if strings.TrimSpace(req.Phone) == "" {
		return fmt.Errorf("%w: phone number is required", model.ErrValidation)
	}
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		return fmt.Errorf("%w: payment method is required", model.ErrValidation)
	}
	if _, ok := methodAliases[method]; !ok {
		return fmt.Errorf("%w: %q", model.ErrInvalidPaymentMethod, req.Method)
	}
	return nil
}

// buildOrders constructs one order per cart line. Every order starts
// with payment in escrow and fulfillment pending; the checkout path
// never produces any other initial state.
func buildOrders(user model.UserProfile, lines []model.CartLine) []model.Order {
	now := time.Now().UTC()
	base := now.UnixMilli()

	orders := make([]model.Order, 0, len(lines))
	for idx, line := range lines {
		orders = append(orders, model.Order{
			ID:          fmt.Sprintf("ORD-%d-%d", base, idx+1),
			Buyer:       user.Name,
			Seller:      line.Seller.Name,
			Items:       line.Name,
			Fulfillment: model.FulfillmentPending,
			Payment:     model.PaymentInEscrow,
			Location:    user.Location,
			Price:       line.Price,
			CreatedAt:   now,
		})
	}
	return orders
}
