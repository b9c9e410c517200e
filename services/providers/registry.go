package providers

import (
	"fmt"

	"github.com/upb/llm-gateway/config"
	"go.uber.org/zap"
)

// Registry holds the descriptor set for all configured providers. It is
// built once at startup from configuration and read-only afterwards.
type Registry struct {
	enabled         []string
	defaultProvider string
	defaultModel    string
	configs         map[string]config.ProviderConfig
}

// NewRegistry validates the configured provider surface and returns the
// registry. An enabled provider without a descriptor or without an endpoint
// is fatal. A remote provider without an API key only logs a warning: running
// degraded with local providers only is a supported mode.
func NewRegistry(cfg config.ProvidersConfig, logger *zap.Logger) (*Registry, error) {
	for _, name := range cfg.Enabled {
		pc, ok := cfg.Configs[name]
		if !ok {
			return nil, fmt.Errorf("missing configuration for provider %q", name)
		}
		if pc.Endpoint == "" {
			return nil, fmt.Errorf("provider %q missing endpoint", name)
		}
		if pc.Type == config.ProviderTypeRemote && pc.APIKey == "" {
			logger.Warn("no API key set for remote provider",
				zap.String("provider", name),
				zap.String("endpoint", pc.Endpoint))
		}
	}

	enabled := make([]string, len(cfg.Enabled))
	copy(enabled, cfg.Enabled)

	configs := make(map[string]config.ProviderConfig, len(cfg.Configs))
	for name, pc := range cfg.Configs {
		configs[name] = pc
	}

	return &Registry{
		enabled:         enabled,
		defaultProvider: cfg.DefaultProvider,
		defaultModel:    cfg.DefaultModel,
		configs:         configs,
	}, nil
}

// Get returns the descriptor for a provider name
func (r *Registry) Get(name string) (config.ProviderConfig, error) {
	pc, ok := r.configs[name]
	if !ok {
		return config.ProviderConfig{}, &NotConfiguredError{Provider: name}
	}
	return pc, nil
}

// CostOf returns the USD cost of a token count for a provider/model pair.
// Unknown providers and unknown models cost nothing.
func (r *Registry) CostOf(name, model string, tokens int) float64 {
	pc, ok := r.configs[name]
	if !ok {
		return 0
	}
	return CostFor(pc, tokens, model)
}

// Enabled returns the enabled provider names in configuration order
func (r *Registry) Enabled() []string {
	out := make([]string, len(r.enabled))
	copy(out, r.enabled)
	return out
}

// DefaultProvider returns the configured default provider name
func (r *Registry) DefaultProvider() string {
	return r.defaultProvider
}

// DefaultModel returns the configured gateway-wide default model
func (r *Registry) DefaultModel() string {
	return r.defaultModel
}

// Count returns the number of enabled providers
func (r *Registry) Count() int {
	return len(r.enabled)
}
