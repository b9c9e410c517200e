package llm

import (
	"context"
	"sync"

	"github.com/upb/llm-gateway/config"
	"github.com/upb/llm-gateway/services/providers"
	"go.uber.org/zap"
)

// Generation result status tags
const (
	StatusSuccess  = "success"
	StatusFallback = "success_fallback"
)

// ProviderSource yields live provider instances by name. Implemented by
// *providers.Factory; tests substitute fakes.
type ProviderSource interface {
	Get(name string) (providers.Provider, error)
}

// Service is the dispatch engine: it routes a generation request to the
// chosen provider and walks the configured fallback chain when that provider
// fails.
type Service struct {
	registry *providers.Registry
	source   ProviderSource
	cfg      config.ProvidersConfig
	logger   *zap.Logger

	mu              sync.RWMutex
	defaultProvider string
}

// NewService creates the dispatch engine over a registry and provider source
func NewService(registry *providers.Registry, source ProviderSource, cfg config.ProvidersConfig, logger *zap.Logger) *Service {
	return &Service{
		registry:        registry,
		source:          source,
		cfg:             cfg,
		logger:          logger,
		defaultProvider: cfg.DefaultProvider,
	}
}

// GenerateParams is the service-level generation request. Nil Temperature or
// MaxTokens fall back to the configured gateway defaults.
type GenerateParams struct {
	Message     string
	Temperature *float64
	MaxTokens   *int
	Provider    string
	Model       string
	ExtraParams map[string]interface{}
}

// GenerateResult is the normalized dispatch outcome
type GenerateResult struct {
	Response     string
	Status       string
	ProviderUsed string
	ModelUsed    string
	TokensUsed   int
	Cost         float64
}

// Generate routes the request to the effective provider and falls back to
// the configured alternates when it fails. Each provider gets exactly one
// attempt per dispatch; there is no backoff between attempts. Fallback
// attempts use the candidate's own default model; the caller's model
// override only applies to the primary.
func (s *Service) Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	providerName := params.Provider
	if providerName == "" {
		providerName = s.DefaultProvider()
	}

	modelName := params.Model
	if modelName == "" {
		modelName = s.defaultModelFor(providerName)
	}

	temperature := s.cfg.DefaultTemperature
	if params.Temperature != nil {
		temperature = *params.Temperature
	}
	maxTokens := s.cfg.DefaultMaxTokens
	if params.MaxTokens != nil {
		maxTokens = *params.MaxTokens
	}

	resp, err := s.invoke(ctx, providerName, providers.Request{
		Message:     params.Message,
		Model:       modelName,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Extra:       params.ExtraParams,
	})
	if err == nil {
		s.logger.Info("generation succeeded",
			zap.String("provider", providerName),
			zap.String("model", modelName),
			zap.Int("tokens", resp.TokensUsed))
		return &GenerateResult{
			Response:     resp.Content,
			Status:       StatusSuccess,
			ProviderUsed: providerName,
			ModelUsed:    modelName,
			TokensUsed:   resp.TokensUsed,
			Cost:         resp.EstimatedCost,
		}, nil
	}

	s.logger.Error("provider failed",
		zap.String("provider", providerName),
		zap.Error(err))

	if !s.cfg.EnableFallback {
		return nil, err
	}

	attempts := []providers.Attempt{{Provider: providerName, Err: err}}

	for _, candidate := range s.fallbackCandidates(providerName) {
		desc, derr := s.registry.Get(candidate)
		if derr != nil {
			attempts = append(attempts, providers.Attempt{Provider: candidate, Err: derr})
			continue
		}

		// Extra params are provider-specific and are not carried across
		// fallbacks; temperature and max tokens are.
		fallbackModel := desc.DefaultModel
		resp, ferr := s.invoke(ctx, candidate, providers.Request{
			Message:     params.Message,
			Model:       fallbackModel,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		if ferr != nil {
			s.logger.Error("fallback provider failed",
				zap.String("provider", candidate),
				zap.Error(ferr))
			attempts = append(attempts, providers.Attempt{Provider: candidate, Err: ferr})
			continue
		}

		s.logger.Info("fallback provider succeeded",
			zap.String("provider", candidate),
			zap.String("model", fallbackModel))
		return &GenerateResult{
			Response:     resp.Content,
			Status:       StatusFallback,
			ProviderUsed: candidate,
			ModelUsed:    fallbackModel,
			TokensUsed:   resp.TokensUsed,
			Cost:         resp.EstimatedCost,
		}, nil
	}

	return nil, &providers.AllFailedError{Attempts: attempts}
}

// invoke obtains the provider instance and performs a single generation call
func (s *Service) invoke(ctx context.Context, name string, req providers.Request) (*providers.Response, error) {
	p, err := s.source.Get(name)
	if err != nil {
		return nil, err
	}
	return p.Generate(ctx, req)
}

// fallbackCandidates returns the configured fallback sequence with the
// primary excluded, truncated to the attempt limit. A zero limit yields no
// candidates.
func (s *Service) fallbackCandidates(primary string) []string {
	candidates := make([]string, 0, len(s.cfg.FallbackProviders))
	for _, name := range s.cfg.FallbackProviders {
		if len(candidates) >= s.cfg.MaxFallbackAttempts {
			break
		}
		if name == primary {
			continue
		}
		candidates = append(candidates, name)
	}
	return candidates
}

// defaultModelFor resolves a provider's descriptor default model, falling
// back to the gateway-wide default when the descriptor is unknown.
func (s *Service) defaultModelFor(providerName string) string {
	if desc, err := s.registry.Get(providerName); err == nil && desc.DefaultModel != "" {
		return desc.DefaultModel
	}
	return s.cfg.DefaultModel
}

// DefaultProvider returns the currently effective default provider. It may
// differ from configuration when the startup probe switched away from an
// unreachable default.
func (s *Service) DefaultProvider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultProvider
}

// SetDefaultProvider switches the effective default provider
func (s *Service) SetDefaultProvider(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultProvider = name
}

// ProviderInfo describes one configured provider for listing purposes.
// Credentials are never included.
type ProviderInfo struct {
	Endpoint          string   `json:"endpoint"`
	DefaultModel      string   `json:"default_model"`
	AvailableModels   []string `json:"available_models"`
	SupportsStreaming bool     `json:"supports_streaming"`
	SupportsFunctions bool     `json:"supports_functions"`
	Type              string   `json:"type"`
}

// ProvidersInfo is the listing of all enabled providers
type ProvidersInfo struct {
	DefaultProvider string                  `json:"default_provider"`
	DefaultModel    string                  `json:"default_model"`
	Providers       map[string]ProviderInfo `json:"providers"`
}

// ListProviders returns the configured providers and their capabilities
func (s *Service) ListProviders() ProvidersInfo {
	info := ProvidersInfo{
		DefaultProvider: s.DefaultProvider(),
		DefaultModel:    s.cfg.DefaultModel,
		Providers:       make(map[string]ProviderInfo),
	}
	for _, name := range s.registry.Enabled() {
		desc, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		info.Providers[name] = ProviderInfo{
			Endpoint:          desc.Endpoint,
			DefaultModel:      desc.DefaultModel,
			AvailableModels:   desc.AvailableModels,
			SupportsStreaming: desc.SupportsStreaming,
			SupportsFunctions: desc.SupportsFunctions,
			Type:              string(desc.Type),
		}
	}
	return info
}
