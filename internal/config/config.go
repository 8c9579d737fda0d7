package config

import (
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/agrisoko/marketplace/pkg/config"
)

// Config holds the core runtime configuration for the marketplace
// service. It supports environment-based initialization with sensible
// local-development defaults; every external dependency is optional so
// the service can run as a purely local simulation.
type Config struct {
	ServiceName string // e.g. "soko-marketplace"
	Env         string // e.g. "dev", "uat", "prod"
	LogLevel    string // "debug", "info", etc.
	Port        int    // HTTP port

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int
	HTTPPrefork      bool

	RedisAddr string // e.g. localhost:6379
	RedisDB   int
	RedisPass string

	// Optional Postgres archive for committed orders. Empty disables it.
	DatabaseURL string

	PGMaxConns          int
	PGMinConns          int
	PGMaxConnLifetime   time.Duration
	PGMaxConnIdleTime   time.Duration
	PGHealthCheckPeriod time.Duration

	// Optional NATS event transport. Empty disables outbound events.
	NATSURL         string
	OutboundSubject string // NATS subject prefix for marketplace events
	EventStream     string // JetStream stream name

	AWSRegion   string        // for AWS SDK client
	CacheTTL    time.Duration // TTL for operator config cache
	CleanupFreq time.Duration // frequency for cache cleanup goroutine

	// Mobile-money simulation. The two delays model real-world prompt
	// delivery and on-device approval; the flow is non-cancellable once
	// the prompt is out.
	PaymentOperator     string        // secret name suffix, e.g. "mpesa"
	PaymentPromptDelay  time.Duration // AwaitingConfirmation minimum latency
	PaymentConfirmDelay time.Duration // Confirmed minimum latency

	// Per-phone prompt throttle.
	PromptRatePerSecond int
	PromptRateBurst     int

	// Archive rollup refresh period (needs DatabaseURL).
	SummaryRefreshInterval time.Duration

	Currency string // display currency code, e.g. "KES"
}

// Load loads configuration from environment variables and .env file if present.
func Load() *Config {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: pkgconfig.GetEnv("SERVICE_NAME", "soko-marketplace"),
		Env:         pkgconfig.GetEnv("ENV", "dev"),
		LogLevel:    pkgconfig.GetEnv("LOG_LEVEL", "info"),
		Port:        pkgconfig.GetEnvInt("PORT", 9040),

		HTTPReadTimeout:  pkgconfig.GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: pkgconfig.GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		HTTPIdleTimeout:  pkgconfig.GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:    pkgconfig.GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),
		HTTPPrefork:      pkgconfig.GetEnvBool("HTTP_PREFORK", false),

		RedisAddr: pkgconfig.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   pkgconfig.GetEnvInt("REDIS_DB", 0),
		RedisPass: pkgconfig.GetEnv("REDIS_PASS", ""),

		DatabaseURL: pkgconfig.GetEnv("DATABASE_URL", ""),

		PGMaxConns:          pkgconfig.GetEnvInt("PG_MAX_CONNS", 10),
		PGMinConns:          pkgconfig.GetEnvInt("PG_MIN_CONNS", 2),
		PGMaxConnLifetime:   pkgconfig.GetEnvDuration("PG_MAX_CONN_LIFETIME", 30*time.Minute),
		PGMaxConnIdleTime:   pkgconfig.GetEnvDuration("PG_MAX_CONN_IDLE_TIME", 5*time.Minute),
		PGHealthCheckPeriod: pkgconfig.GetEnvDuration("PG_HEALTH_CHECK_PERIOD", 1*time.Minute),

		NATSURL:         pkgconfig.GetEnv("NATS_URL", ""),
		OutboundSubject: pkgconfig.GetEnv("OUTBOUND_SUBJECT", "evt.soko.marketplace.v1"),
		EventStream:     pkgconfig.GetEnv("EVENT_STREAM", "SOKO_EVENTS"),

		AWSRegion:   pkgconfig.GetEnv("AWS_REGION", "us-east-2"),
		CacheTTL:    pkgconfig.GetEnvDuration("CACHE_TTL", 24*time.Hour),
		CleanupFreq: pkgconfig.GetEnvDuration("CACHE_CLEANUP_FREQ", 10*time.Minute),

		PaymentOperator:     pkgconfig.GetEnv("PAYMENT_OPERATOR", "mpesa"),
		PaymentPromptDelay:  pkgconfig.GetEnvDuration("PAYMENT_PROMPT_DELAY", 2*time.Second),
		PaymentConfirmDelay: pkgconfig.GetEnvDuration("PAYMENT_CONFIRM_DELAY", 2*time.Second),

		PromptRatePerSecond: pkgconfig.GetEnvInt("PROMPT_RATE_PER_SECOND", 1),
		PromptRateBurst:     pkgconfig.GetEnvInt("PROMPT_RATE_BURST", 3),

		SummaryRefreshInterval: pkgconfig.GetEnvDuration("SUMMARY_REFRESH_INTERVAL", 24*time.Hour),

		Currency: pkgconfig.GetEnv("CURRENCY", "KES"),
	}

	return cfg
}
