package api

import (
	"bytes"
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/internal/catalog"
	"github.com/agrisoko/marketplace/internal/checkout"
	"github.com/agrisoko/marketplace/internal/identity"
	"github.com/agrisoko/marketplace/internal/ledger"
	"github.com/agrisoko/marketplace/pkg/model"
)

// CatalogService defines the catalog operations needed by the handler.
type CatalogService interface {
	List(ctx context.Context) []model.Product
	Get(ctx context.Context, productID string) (model.Product, error)
	AddListing(ctx context.Context, listing catalog.NewListing, owner model.UserProfile) (model.Product, error)
	RemoveListing(ctx context.Context, productID, requesterID string) error
	MarkSold(ctx context.Context, productID, requesterID string) error
}

// CartService defines the cart operations needed by the handler.
type CartService interface {
	Add(ctx context.Context, product model.Product, currentUser model.UserProfile) error
	Remove(ctx context.Context, index int) error
	Lines() []model.CartLine
	Total() int64
}

// CheckoutService runs the escrow payment flow.
type CheckoutService interface {
	Run(ctx context.Context, user model.UserProfile, req checkout.Request) (checkout.Result, error)
}

// LedgerService defines the order-ledger operations needed by the handler.
type LedgerService interface {
	ListFor(userName string, view model.View) []model.Order
	Get(orderID string) (model.Order, error)
	UpdateFulfillmentStatus(ctx context.Context, orderID string, next model.FulfillmentStatus) (model.Order, error)
	SummaryFor(userName string) model.Summary
}

// IdentityService supplies and updates the active user profile.
type IdentityService interface {
	Current(ctx context.Context) model.UserProfile
	UpdateProfile(ctx context.Context, patch identity.ProfilePatch) (model.UserProfile, error)
}

// MarketHandler handles HTTP API requests for marketplace operations.
type MarketHandler struct {
	logger   *zap.Logger
	catalog  CatalogService
	cart     CartService
	checkout CheckoutService
	ledger   LedgerService
	identity IdentityService
	currency string
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(logger *zap.Logger, cat CatalogService, crt CartService, chk CheckoutService, led LedgerService, id IdentityService, currency string) *MarketHandler {
	return &MarketHandler{
		logger:   logger,
		catalog:  cat,
		cart:     crt,
		checkout: chk,
		ledger:   led,
		identity: id,
		currency: currency,
	}
}

// --- Catalog ---

// ListProducts returns every live listing, most recent first.
func (h *MarketHandler) ListProducts(c *fiber.Ctx) error {
	return c.JSON(h.catalog.List(c.Context()))
}

// GetProduct returns a single listing by id.
func (h *MarketHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.catalog.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errJSON(c, err)
	}
	return c.JSON(product)
}

// CreateProduct publishes a new listing owned by the current user.
func (h *MarketHandler) CreateProduct(c *fiber.Ctx) error {
	var req ListingCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := h.identity.Current(c.Context())
	product, err := h.catalog.AddListing(c.Context(), catalog.NewListing{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		Image:    req.Image,
	}, user)
	if err != nil {
		h.logger.Error("api.create_product.failed",
			zap.String("user", user.ID),
			zap.Error(err))
		return errJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

// DeleteProduct removes a listing; only the owner may do this.
func (h *MarketHandler) DeleteProduct(c *fiber.Ctx) error {
	user := h.identity.Current(c.Context())
	if err := h.catalog.RemoveListing(c.Context(), c.Params("id"), user.ID); err != nil {
		return errJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkProductSold delists a product as sold; only the owner may do this.
func (h *MarketHandler) MarkProductSold(c *fiber.Ctx) error {
	user := h.identity.Current(c.Context())
	if err := h.catalog.MarkSold(c.Context(), c.Params("id"), user.ID); err != nil {
		return errJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- Cart ---

// GetCart returns the current cart lines and total.
func (h *MarketHandler) GetCart(c *fiber.Ctx) error {
	return c.JSON(CartResponse{
		Items: h.cart.Lines(),
		Total: h.cart.Total(),
	})
}

// AddCartItem resolves the referenced listing and snapshots it into the
// cart.
func (h *MarketHandler) AddCartItem(c *fiber.Ctx) error {
	var req CartAddRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	product, err := h.catalog.Get(c.Context(), req.ProductID)
	if err != nil {
		return errJSON(c, err)
	}

	user := h.identity.Current(c.Context())
	if err := h.cart.Add(c.Context(), product, user); err != nil {
		return errJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CartResponse{
		Items: h.cart.Lines(),
		Total: h.cart.Total(),
	})
}

// RemoveCartItem drops the line at the given position. Out-of-range
// positions are a no-op, matching the service semantics.
func (h *MarketHandler) RemoveCartItem(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "index must be an integer"})
	}
	if err := h.cart.Remove(c.Context(), index); err != nil {
		return errJSON(c, err)
	}
	return c.JSON(CartResponse{
		Items: h.cart.Lines(),
		Total: h.cart.Total(),
	})
}

// --- Checkout ---

// Checkout runs the full escrow payment flow for the current cart.
func (h *MarketHandler) Checkout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := h.identity.Current(c.Context())
	result, err := h.checkout.Run(c.Context(), user, checkout.Request{
		Phone:  req.Phone,
		Method: req.Method,
	})
	if err != nil {
		h.logger.Warn("api.checkout.failed",
			zap.String("user", user.ID),
			zap.Error(err))
		return c.Status(statusForErr(err)).JSON(CheckoutResponse{
			State:    string(result.State),
			ErrorMsg: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(CheckoutResponse{
		State:   string(result.State),
		Orders:  result.Orders,
		Total:   result.Total,
		Display: ledger.FormatAmount(h.currency, result.Total),
	})
}

// --- Orders ---

// ListOrders returns the current user's orders in the requested view
// (buying by default).
func (h *MarketHandler) ListOrders(c *fiber.Ctx) error {
	view, err := model.ToView(c.Query("view", string(model.ViewBuying)))
	if err != nil {
		return errJSON(c, err)
	}
	user := h.identity.Current(c.Context())
	return c.JSON(h.ledger.ListFor(user.Name, view))
}

// GetOrder returns a single order by id.
func (h *MarketHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.ledger.Get(c.Params("id"))
	if err != nil {
		return errJSON(c, err)
	}
	return c.JSON(order)
}

// UpdateFulfillment advances an order's delivery status.
func (h *MarketHandler) UpdateFulfillment(c *fiber.Ctx) error {
	var req FulfillmentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	status, err := model.ToFulfillmentStatus(req.Status)
	if err != nil {
		return errJSON(c, err)
	}
	order, err := h.ledger.UpdateFulfillmentStatus(c.Context(), c.Params("id"), status)
	if err != nil {
		return errJSON(c, err)
	}
	return c.JSON(order)
}

// GetSummary returns the user's financial rollup.
func (h *MarketHandler) GetSummary(c *fiber.Ctx) error {
	user := h.identity.Current(c.Context())
	summary := h.ledger.SummaryFor(user.Name)
	return c.JSON(SummaryResponse{
		TotalSpent:  summary.TotalSpent,
		TotalEarned: summary.TotalEarned,
		Net:         summary.Net(),
	})
}

// ExportStatement streams the user's orders in the requested view as a
// CSV statement.
func (h *MarketHandler) ExportStatement(c *fiber.Ctx) error {
	view, err := model.ToView(c.Query("view", string(model.ViewBuying)))
	if err != nil {
		return errJSON(c, err)
	}

	user := h.identity.Current(c.Context())
	orders := h.ledger.ListFor(user.Name, view)

	var buf bytes.Buffer
	if err := ledger.WriteStatement(&buf, orders, view, h.currency); err != nil {
		h.logger.Error("api.statement.failed",
			zap.String("user", user.ID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="statement-`+string(view)+`.csv"`)
	return c.Send(buf.Bytes())
}

// --- Profile ---

// GetProfile returns the active user profile.
func (h *MarketHandler) GetProfile(c *fiber.Ctx) error {
	return c.JSON(h.identity.Current(c.Context()))
}

// UpdateProfile patches the active user profile.
func (h *MarketHandler) UpdateProfile(c *fiber.Ctx) error {
	var req ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	profile, err := h.identity.UpdateProfile(c.Context(), identity.ProfilePatch{
		Name:     req.Name,
		Role:     req.Role,
		Location: req.Location,
	})
	if err != nil {
		return errJSON(c, err)
	}
	return c.JSON(profile)
}
