package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider implements Provider over process environment variables.
// It is the safe local fallback when no AWS Secrets Manager access is
// configured: a secret named "dev/soko/mpesa" maps to env vars prefixed
// DEV_SOKO_MPESA_ (e.g. DEV_SOKO_MPESA_SHORT_CODE).
type EnvProvider struct{}

// NewEnvProvider creates an environment-variable backed provider.
func NewEnvProvider() Provider {
	return &EnvProvider{}
}

// GetSecret collects all env vars under the key's prefix into a map.
// Returns an error when no variable under the prefix is set.
func (p *EnvProvider) GetSecret(_ context.Context, key string) (map[string]string, error) {
	prefix := envPrefix(key)

	result := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		field := strings.ToLower(strings.TrimPrefix(name, prefix))
		result[field] = value
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no env secret found for [%s] (prefix %s)", key, prefix)
	}
	return result, nil
}

// ListSecrets is not discoverable from the environment; it returns the
// prefix itself when at least one matching variable exists.
func (p *EnvProvider) ListSecrets(ctx context.Context, prefix string) ([]string, error) {
	if _, err := p.GetSecret(ctx, prefix); err != nil {
		return nil, nil
	}
	return []string{prefix}, nil
}

func envPrefix(key string) string {
	norm := strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(key)
	return strings.ToUpper(norm) + "_"
}
