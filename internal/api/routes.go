package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrisoko/marketplace/internal/store"
)

func RegisterRoutes(app *fiber.App, nc *nats.Conn, st store.Store, handler *MarketHandler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check. NATS is optional; only the store degrades health.
	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{
			"nats":  "ok",
			"store": "ok",
		}
		status := "ok"
		code := fiber.StatusOK

		if nc == nil {
			checks["nats"] = "disabled"
		} else if !nc.IsConnected() {
			checks["nats"] = "disconnected"
		} else if err := nc.FlushTimeout(1 * time.Second); err != nil {
			checks["nats"] = err.Error()
		}

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := st.HealthCheck(healthCtx); err != nil {
			checks["store"] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	// API routes
	v1 := app.Group("/api/v1")

	v1.Get("/products", handler.ListProducts)
	v1.Post("/products", handler.CreateProduct)
	v1.Get("/products/:id", handler.GetProduct)
	v1.Delete("/products/:id", handler.DeleteProduct)
	v1.Post("/products/:id/sold", handler.MarkProductSold)

	v1.Get("/cart", handler.GetCart)
	v1.Post("/cart/items", handler.AddCartItem)
	v1.Delete("/cart/items/:index", handler.RemoveCartItem)

	v1.Post("/checkout", handler.Checkout)

	v1.Get("/orders", handler.ListOrders)
	v1.Get("/orders/statement", handler.ExportStatement)
	v1.Get("/orders/:id", handler.GetOrder)
	v1.Patch("/orders/:id/fulfillment", handler.UpdateFulfillment)

	v1.Get("/summary", handler.GetSummary)

	v1.Get("/profile", handler.GetProfile)
	v1.Patch("/profile", handler.UpdateProfile)
}
