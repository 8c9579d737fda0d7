package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/pkg/model"
)

// Storage keys. These preserve the logical names of the original
// dashboard's persisted state so existing JSON payloads round-trip.
const (
	KeyProducts = "marketplace_products"
	KeyOrders   = "marketplace_orders"
	KeyProfile  = "user_profile"

	cartKeyFmt = "cart_items:%s"
)

// Store defines the contract for persisting marketplace state.
type Store interface {
	LoadCatalog(ctx context.Context) ([]model.Product, error)
	SaveCatalog(ctx context.Context, products []model.Product) error
	LoadCart(ctx context.Context, userID string) ([]model.CartLine, error)
	SaveCart(ctx context.Context, userID string, lines []model.CartLine) error
	LoadOrders(ctx context.Context) ([]model.Order, error)
	SaveOrders(ctx context.Context, orders []model.Order) error
	LoadProfile(ctx context.Context) (*model.UserProfile, error)
	SaveProfile(ctx context.Context, profile model.UserProfile) error
	ArchiveOrderBatch(ctx context.Context, orders []model.Order) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// HybridStore is Redis-primary with an optional Postgres archive for
// committed orders. A nil Postgres pool degrades archive writes to
// no-ops, so the service runs fully local without a database.
type HybridStore struct {
	redis  *redis.Client
	PG     *pgxpool.Pool
	logger *zap.Logger
}

type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// NewHybrid creates a Redis-first, optionally Postgres-archived store.
func NewHybrid(redisAddr string, redisDB int, redisPass, pgURL string, pgPoolConfig PGPoolConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		DB:       redisDB,
		Password: redisPass,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	var pgPool *pgxpool.Pool
	if pgURL != "" {
		cfg, err := pgxpool.ParseConfig(pgURL)
		if err != nil {
			return nil, fmt.Errorf("invalid pg config: %w", err)
		}
		if pgPoolConfig.MaxConns > 0 {
			cfg.MaxConns = pgPoolConfig.MaxConns
		}
		if pgPoolConfig.MinConns > 0 {
			cfg.MinConns = pgPoolConfig.MinConns
		}
		if pgPoolConfig.MaxConnLifetime > 0 {
			cfg.MaxConnLifetime = pgPoolConfig.MaxConnLifetime
		}
		if pgPoolConfig.MaxConnIdleTime > 0 {
			cfg.MaxConnIdleTime = pgPoolConfig.MaxConnIdleTime
		}
		if pgPoolConfig.HealthCheckPeriod > 0 {
			cfg.HealthCheckPeriod = pgPoolConfig.HealthCheckPeriod
		}
		pgPool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	return &HybridStore{redis: rdb, PG: pgPool, logger: logger}, nil
}

func cartKey(userID string) string {
	return fmt.Sprintf(cartKeyFmt, userID)
}

func (s *HybridStore) LoadCatalog(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := s.getList(ctx, KeyProducts, &products); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return products, nil
}

func (s *HybridStore) SaveCatalog(ctx context.Context, products []model.Product) error {
	if err := s.SetJSON(ctx, KeyProducts, products, 0); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

func (s *HybridStore) LoadCart(ctx context.Context, userID string) ([]model.CartLine, error) {
	var lines []model.CartLine
	if err := s.getList(ctx, cartKey(userID), &lines); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return lines, nil
}

func (s *HybridStore) SaveCart(ctx context.Context, userID string, lines []model.CartLine) error {
	if err := s.SetJSON(ctx, cartKey(userID), lines, 0); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *HybridStore) LoadOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := s.getList(ctx, KeyOrders, &orders); err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return orders, nil
}

func (s *HybridStore) SaveOrders(ctx context.Context, orders []model.Order) error {
	if err := s.SetJSON(ctx, KeyOrders, orders, 0); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	return nil
}

// LoadProfile returns nil without error when no profile has been stored.
func (s *HybridStore) LoadProfile(ctx context.Context) (*model.UserProfile, error) {
	data, err := s.redis.Get(ctx, KeyProfile).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var profile model.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &profile, nil
}

func (s *HybridStore) SaveProfile(ctx context.Context, profile model.UserProfile) error {
	if err := s.SetJSON(ctx, KeyProfile, profile, 0); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// ArchiveOrderBatch inserts committed orders into the Postgres archive.
// No-op when Postgres is not configured.
func (s *HybridStore) ArchiveOrderBatch(ctx context.Context, orders []model.Order) error {
	if s.PG == nil {
		return nil
	}
	for _, o := range orders {
		_, err := s.PG.Exec(ctx, `
			INSERT INTO marketplace.order_archive (
				order_id, buyer, seller, items,
				fulfillment_status, payment_status, location, price, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (order_id) DO NOTHING
		`, o.ID, o.Buyer, o.Seller, o.Items,
			string(o.Fulfillment), string(o.Payment), o.Location, o.Price, o.CreatedAt)
		if err != nil {
			s.logger.Error("store.pg.archive_order_failed",
				zap.String("order_id", o.ID),
				zap.Error(err))
			return err
		}
	}
	return nil
}

// getList unmarshals a JSON array key into dest; a missing key leaves
// dest untouched (empty collection semantics).
func (s *HybridStore) getList(ctx context.Context, key string, dest any) error {
	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	} else if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *HybridStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, ttl).Err()
}

func (s *HybridStore) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *HybridStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if s.PG != nil {
		if err := s.PG.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
	}
	return nil
}

func (s *HybridStore) Close() error {
	if s.PG != nil {
		s.PG.Close()
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
