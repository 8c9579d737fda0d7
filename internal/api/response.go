package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/agrisoko/marketplace/pkg/model"
)

// CheckoutResponse reports the terminal state of a checkout flow.
type CheckoutResponse struct {
	State    string        `json:"state"`
	Orders   []model.Order `json:"orders,omitempty"`
	Total    int64         `json:"total"`
	Display  string        `json:"display,omitempty"`
	ErrorMsg string        `json:"error,omitempty"`
}

// CartResponse is the current cart contents plus the running total.
type CartResponse struct {
	Items []model.CartLine `json:"items"`
	Total int64            `json:"total"`
}

// SummaryResponse is the per-user financial rollup across both views.
type SummaryResponse struct {
	TotalSpent  int64 `json:"totalSpent"`
	TotalEarned int64 `json:"totalEarned"`
	Net         int64 `json:"net"`
}

// statusForErr maps the domain error taxonomy onto HTTP status codes.
// Unrecognized errors are treated as bad requests rather than 500s:
// every service failure surfaced here is caused by caller input.
func statusForErr(err error) int {
	switch {
	case errors.Is(err, model.ErrLoginRequired):
		return fiber.StatusUnauthorized
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrSelfPurchase):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrRateLimited):
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusBadRequest
	}
}

func errJSON(c *fiber.Ctx, err error) error {
	return c.Status(statusForErr(err)).JSON(fiber.Map{"error": err.Error()})
}
