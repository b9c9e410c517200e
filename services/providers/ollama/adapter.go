package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/upb/llm-gateway/config"
	"github.com/upb/llm-gateway/services/providers"
	"go.uber.org/zap"
)

const (
	providerName = "ollama"
	probeTimeout = 5 * time.Second
)

// Adapter implements the Provider interface for a local Ollama server.
// Local generation is free; token usage is estimated because Ollama does not
// report it.
type Adapter struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a new Ollama adapter
func New(cfg config.ProviderConfig, logger *zap.Logger) (providers.Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Adapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providerName
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate performs a completion against POST /api/generate
func (a *Adapter) Generate(ctx context.Context, req providers.Request) (*providers.Response, error) {
	options := map[string]interface{}{
		"temperature": req.Temperature,
		"num_predict": req.MaxTokens,
	}
	// Extra parameters pass through to Ollama's options unexamined.
	for k, v := range req.Extra {
		options[k] = v
	}

	payload := generateRequest{
		Model:   req.Model,
		Prompt:  req.Message,
		Stream:  false,
		Options: options,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, providers.NewBackendError(providerName, "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewBackendError(providerName, "failed to create request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewBackendError(providerName, "request failed", 0, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewBackendError(providerName, "failed to read response", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, providers.NewBackendError(providerName, string(respBody), httpResp.StatusCode, nil)
	}

	var data generateResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, providers.NewBackendError(providerName, "failed to unmarshal response", httpResp.StatusCode, err)
	}

	// Ollama does not report token usage; estimate from the content.
	tokens := providers.EstimateTokens(data.Response)

	return &providers.Response{
		Content:       data.Response,
		TokensUsed:    tokens,
		EstimatedCost: a.EstimateCost(tokens, req.Model),
		Provider:      providerName,
		Model:         req.Model,
	}, nil
}

// HealthCheck probes GET /api/tags with a short timeout
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// ListModels returns the locally installed models, or the configured list
// when the server cannot be reached.
func (a *Adapter) ListModels(ctx context.Context) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.Endpoint+"/api/tags", nil)
	if err != nil {
		return a.cfg.AvailableModels
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Debug("failed to list ollama models", zap.Error(err))
		return a.cfg.AvailableModels
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Debug("failed to list ollama models",
			zap.String("status", fmt.Sprintf("%d", resp.StatusCode)))
		return a.cfg.AvailableModels
	}

	var data tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return a.cfg.AvailableModels
	}

	models := make([]string, 0, len(data.Models))
	for _, m := range data.Models {
		models = append(models, m.Name)
	}
	return models
}

// EstimateCost always returns 0: local models are free
func (a *Adapter) EstimateCost(tokens int, model string) float64 {
	return providers.CostFor(a.cfg, tokens, model)
}

// Close releases pooled connections
func (a *Adapter) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}
