package payment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/internal/rate"
	"github.com/agrisoko/marketplace/pkg/model"
)

// PromptRequest describes one simulated mobile-money payment prompt.
type PromptRequest struct {
	Phone    string
	Amount   int64
	Operator string
}

// Gateway drives the two buyer-facing steps of the payment protocol:
// delivering the payment prompt to the device and waiting for on-device
// approval. Implementations are simulations; no real funds move.
type Gateway interface {
	SendPrompt(ctx context.Context, req PromptRequest) error
	AwaitApproval(ctx context.Context, req PromptRequest) error
}

// SimulatedGateway models prompt delivery and approval as fixed
// minimum latencies. The waits deliberately ignore context
// cancellation: once a prompt is out, the flow cannot be aborted,
// matching the dashboard's non-cancellable checkout.
type SimulatedGateway struct {
	logger       *zap.Logger
	resolver     *OperatorResolver
	limits       *rate.Manager
	promptDelay  time.Duration
	confirmDelay time.Duration

	// Failure injection hooks for tests; nil means always succeed.
	PromptErr   error
	ApprovalErr error
}

// NewSimulatedGateway creates the simulated gateway. limits may be nil,
// which disables per-phone prompt throttling.
func NewSimulatedGateway(logger *zap.Logger, resolver *OperatorResolver, limits *rate.Manager, promptDelay, confirmDelay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{
		logger:       logger,
		resolver:     resolver,
		limits:       limits,
		promptDelay:  promptDelay,
		confirmDelay: confirmDelay,
	}
}

// SendPrompt simulates pushing the payment prompt to the buyer's phone.
func (g *SimulatedGateway) SendPrompt(ctx context.Context, req PromptRequest) error {
	if g.limits != nil && !g.limits.Allow(req.Phone) {
		return fmt.Errorf("%w: too many payment prompts for %s", model.ErrRateLimited, maskPhone(req.Phone))
	}

	operator := g.resolver.Resolve(ctx, req.Operator)

	g.logger.Info("payment.prompt_sent",
		zap.String("operator", operator.DisplayName),
		zap.String("short_code", operator.ShortCode),
		zap.String("phone", maskPhone(req.Phone)),
		zap.Int64("amount", req.Amount))

	time.Sleep(g.promptDelay)
	if g.PromptErr != nil {
		return g.PromptErr
	}
	return nil
}

// AwaitApproval simulates the buyer approving the payment on-device.
func (g *SimulatedGateway) AwaitApproval(ctx context.Context, req PromptRequest) error {
	time.Sleep(g.confirmDelay)
	if g.ApprovalErr != nil {
		return g.ApprovalErr
	}

	g.logger.Info("payment.approved",
		zap.String("phone", maskPhone(req.Phone)),
		zap.Int64("amount", req.Amount))
	return nil
}

// maskPhone hides all but the last three digits of a phone number.
func maskPhone(phone string) string {
	if len(phone) <= 3 {
		return "***"
	}
	masked := make([]byte, len(phone)-3)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + phone[len(phone)-3:]
}
