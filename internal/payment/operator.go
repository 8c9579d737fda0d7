package payment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/pkg/secrets"
)

// OperatorConfig holds mobile-money operator parameters. In a real
// integration these feed the STK-push request; here they only shape the
// simulated prompt, but they resolve through the same secrets path a
// live deployment would use.
type OperatorConfig struct {
	ShortCode   string
	Passkey     string
	DisplayName string
}

// fallbackOperator is the safe local default used when no secret is
// configured. The short code is Safaricom's public sandbox value.
var fallbackOperator = OperatorConfig{
	ShortCode:   "174379",
	Passkey:     "sandbox",
	DisplayName: "M-PESA (sandbox)",
}

// OperatorResolver resolves mobile-money operator configuration from a
// secrets provider with an in-memory TTL cache. Resolution failures
// degrade to the sandbox fallback rather than blocking checkout.
//
// Secret naming convention: {env}/soko/{operator}
// Secret JSON format:       {"short_code": "...", "passkey": "...", "display_name": "..."}
type OperatorResolver struct {
	logger   *zap.Logger
	env      string
	provider secrets.Provider
	cache    *secrets.Cache[OperatorConfig]
}

// NewOperatorResolver constructs the resolver. A nil provider means
// every lookup resolves to the sandbox fallback.
func NewOperatorResolver(logger *zap.Logger, env string, provider secrets.Provider, cache *secrets.Cache[OperatorConfig]) *OperatorResolver {
	return &OperatorResolver{
		logger:   logger,
		env:      env,
		provider: provider,
		cache:    cache,
	}
}

// Resolve fetches or caches the OperatorConfig for a given operator name.
func (r *OperatorResolver) Resolve(ctx context.Context, operator string) OperatorConfig {
	if cfg, ok := r.cache.Get(operator); ok {
		return cfg
	}

	if r.provider == nil {
		return fallbackOperator
	}

	key := fmt.Sprintf("%s/soko/%s", r.env, operator)
	raw, err := r.provider.GetSecret(ctx, key)
	if err != nil {
		r.logger.Warn("payment.operator_secret_unavailable",
			zap.String("operator", operator),
			zap.Error(err))
		return fallbackOperator
	}

	cfg, err := parseOperatorConfig(raw)
	if err != nil {
		r.logger.Warn("payment.operator_secret_invalid",
			zap.String("operator", operator),
			zap.Error(err))
		return fallbackOperator
	}

	r.cache.Put(operator, cfg)
	return cfg
}

// parseOperatorConfig extracts an OperatorConfig from the raw secret map.
func parseOperatorConfig(m map[string]string) (OperatorConfig, error) {
	cfg := OperatorConfig{
		ShortCode:   m["short_code"],
		Passkey:     m["passkey"],
		DisplayName: m["display_name"],
	}
	if cfg.ShortCode == "" {
		return OperatorConfig{}, fmt.Errorf("missing required field 'short_code'")
	}
	if cfg.Passkey == "" {
		return OperatorConfig{}, fmt.Errorf("missing required field 'passkey'")
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = cfg.ShortCode
	}
	return cfg, nil
}
