package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/agrisoko/marketplace/internal/api"
	"github.com/agrisoko/marketplace/internal/cart"
	"github.com/agrisoko/marketplace/internal/catalog"
	"github.com/agrisoko/marketplace/internal/checkout"
	"github.com/agrisoko/marketplace/internal/config"
	"github.com/agrisoko/marketplace/internal/identity"
	"github.com/agrisoko/marketplace/internal/jobs"
	"github.com/agrisoko/marketplace/internal/ledger"
	"github.com/agrisoko/marketplace/internal/notify"
	"github.com/agrisoko/marketplace/internal/payment"
	"github.com/agrisoko/marketplace/internal/publisher"
	"github.com/agrisoko/marketplace/internal/rate"
	"github.com/agrisoko/marketplace/internal/store"
	"github.com/agrisoko/marketplace/pkg/eventbus"
	"github.com/agrisoko/marketplace/pkg/logger"
	"github.com/agrisoko/marketplace/pkg/secrets"
	"github.com/agrisoko/marketplace/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	logg := logger.S()
	logg.Info("starting [soko-marketplace]...")
	if cfg.DatabaseURL != "" {
		logg.Info("order archive DSN: ", utils.MaskDSN(cfg.DatabaseURL))
	}

	// --- Secrets provider for payment operator config ---
	// AWS Secrets Manager when reachable, environment variables otherwise.
	provider, err := secrets.NewAWSProvider(cfg.AWSRegion)
	if err != nil {
		logg.Warnw("aws secrets manager unavailable, using env provider", "error", err)
		provider = secrets.NewEnvProvider()
	}

	operatorCache := secrets.NewCache[payment.OperatorConfig](cfg.CacheTTL)
	stopCleaner := make(chan struct{})
	go operatorCache.StartCleaner(cfg.CleanupFreq, stopCleaner)

	resolver := payment.NewOperatorResolver(logger.L(), cfg.Env, provider, operatorCache)

	// --- Store (Redis + optional Postgres archive) ---
	st, err := store.NewHybrid(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPass, cfg.DatabaseURL, store.PGPoolConfig{
		MaxConns:          int32(cfg.PGMaxConns),
		MinConns:          int32(cfg.PGMinConns),
		MaxConnLifetime:   cfg.PGMaxConnLifetime,
		MaxConnIdleTime:   cfg.PGMaxConnIdleTime,
		HealthCheckPeriod: cfg.PGHealthCheckPeriod,
	}, logger.L())
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}

	// --- NATS (optional; absence degrades to log-only notifications) ---
	var nc *nats.Conn
	var pub *publisher.Publisher
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Warnw("failed to connect to NATS, events disabled", "error", err)
		} else {
			pub, err = publisher.New(nc, cfg.OutboundSubject, cfg.EventStream, cfg.ServiceName)
			if err != nil {
				logg.Fatalw("failed to init publisher", "error", err)
			}
		}
	} else {
		logg.Warn("NATS_URL not configured; outbound events disabled")
	}

	// --- In-process event bus + user notifications ---
	bus := eventbus.New()
	notify.New(bus, pub, logger.L())

	// --- Domain services ---
	ids, err := identity.New(ctx, st, logger.L())
	if err != nil {
		logg.Fatalw("failed to init identity service", "error", err)
	}

	cat, err := catalog.New(ctx, st, bus, logger.L())
	if err != nil {
		logg.Fatalw("failed to init catalog service", "error", err)
	}

	crt, err := cart.New(ctx, st, ids.Current(ctx).ID, logger.L())
	if err != nil {
		logg.Fatalw("failed to init cart service", "error", err)
	}

	led, err := ledger.New(ctx, st, bus, logger.L())
	if err != nil {
		logg.Fatalw("failed to init order ledger", "error", err)
	}

	// Per-phone throttle so repeated checkout attempts cannot flood a
	// device with payment prompts.
	promptLimits := rate.NewManager(rate.Config{
		PromptsPerSecond: cfg.PromptRatePerSecond,
		Burst:            cfg.PromptRateBurst,
	})

	gateway := payment.NewSimulatedGateway(logger.L(), resolver, promptLimits, cfg.PaymentPromptDelay, cfg.PaymentConfirmDelay)

	// Nightly rollup refresh over the order archive, only when the
	// archive database is configured.
	if hs, ok := st.(*store.HybridStore); ok && hs.PG != nil {
		refresher := jobs.NewSummaryRefresher(logger.L(), hs.PG, pub, cfg.SummaryRefreshInterval)
		go refresher.Start(ctx)
	}
	chk := checkout.New(crt, led, gateway, bus, logger.L(), cfg.PaymentOperator)

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
		Prefork:      cfg.HTTPPrefork,
	})

	handler := api.NewMarketHandler(logger.L(), cat, crt, chk, led, ids, cfg.Currency)
	api.RegisterRoutes(app, nc, st, handler)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[soko-marketplace] running",
		"env", cfg.Env,
		"redis", cfg.RedisAddr,
		"nats", cfg.NATSURL,
		"operator", cfg.PaymentOperator)

	<-ctx.Done()
	logg.Info("shutting down [soko-marketplace]...")

	close(stopCleaner)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
	if err := st.Close(); err != nil {
		logg.Warnw("store.close_failed", "error", err)
	}
}
