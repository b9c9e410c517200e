package providers

import (
	"context"
	"strings"

	"github.com/upb/llm-gateway/config"
	"go.uber.org/zap"
)

// Provider represents a unified LLM provider interface. One implementation
// exists per external service (see the ollama, openai, anthropic and gemini
// subpackages); adapters are the only components that perform network I/O.
type Provider interface {
	// Name returns the provider name (e.g., "openai", "anthropic", "ollama")
	Name() string

	// Generate performs a text generation request. It returns a *BackendError
	// on transport failure, non-success status code or malformed response
	// body; it never reports a failure as a successful empty response.
	Generate(ctx context.Context, req Request) (*Response, error)

	// HealthCheck performs a lightweight reachability probe against an
	// endpoint distinct from generation, with a shorter timeout. It never
	// returns an error; any failure reads as false.
	HealthCheck(ctx context.Context) bool

	// ListModels returns the models the provider advertises. Best-effort:
	// on failure it returns the statically configured model list instead of
	// propagating an error.
	ListModels(ctx context.Context) []string

	// EstimateCost computes the USD cost for a token count against the
	// provider's cost table. Pure; returns 0 for free providers and for
	// unknown model keys.
	EstimateCost(tokens int, model string) float64

	// Close releases pooled connection resources. Called only through
	// Factory.CloseAll at shutdown.
	Close() error
}

// Request is the normalized generation request handed to an adapter.
type Request struct {
	Message     string
	Model       string
	Temperature float64
	MaxTokens   int

	// Extra carries provider-specific parameters passed through unexamined.
	Extra map[string]interface{}
}

// Response is the normalized generation result produced by an adapter.
type Response struct {
	Content       string
	TokensUsed    int
	EstimatedCost float64
	Provider      string
	Model         string
	Metadata      map[string]interface{}
}

// Builder constructs a live Provider from its descriptor. The factory holds
// a static name->Builder table; registration is explicit, not discovered.
type Builder func(cfg config.ProviderConfig, logger *zap.Logger) (Provider, error)

// CostFor computes the USD cost of a token count against a descriptor's cost
// table. Unknown models within a per-model table, and providers with no
// pricing at all, cost nothing.
func CostFor(cfg config.ProviderConfig, tokens int, model string) float64 {
	if tokens <= 0 {
		return 0
	}
	rate := rateFor(cfg, model)
	if rate <= 0 {
		return 0
	}
	return float64(tokens) / 1000 * rate
}

func rateFor(cfg config.ProviderConfig, model string) float64 {
	if len(cfg.CostPerModel) > 0 {
		return cfg.CostPerModel[model]
	}
	return cfg.CostPer1KTokens
}

// EstimateTokens roughly estimates a token count for backends that do not
// report usage (about 1.3 tokens per word).
func EstimateTokens(text string) int {
	return int(float64(len(strings.Fields(text))) * 1.3)
}
