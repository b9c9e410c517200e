package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/upb/llm-gateway/config"
	"github.com/upb/llm-gateway/services/providers"
	"go.uber.org/zap"
)

const (
	providerName = "anthropic"
	probeTimeout = 5 * time.Second
	apiVersion   = "2023-06-01"
)

// Adapter implements the Provider interface for the Anthropic messages API.
type Adapter struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a new Anthropic adapter
func New(cfg config.ProviderConfig, logger *zap.Logger) (providers.Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
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

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Generate performs a completion against POST /messages
func (a *Adapter) Generate(ctx context.Context, req providers.Request) (*providers.Response, error) {
	payload := map[string]interface{}{
		"model":       req.Model,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
		"messages": []map[string]string{
			{"role": "user", "content": req.Message},
		},
	}
	for k, v := range req.Extra {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, providers.NewBackendError(providerName, "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewBackendError(providerName, "failed to create request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

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
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, providers.NewBackendError(providerName, errResp.Error.Message, httpResp.StatusCode, nil)
		}
		return nil, providers.NewBackendError(providerName, string(respBody), httpResp.StatusCode, nil)
	}

	var data messagesResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, providers.NewBackendError(providerName, "failed to unmarshal response", httpResp.StatusCode, err)
	}
	if len(data.Content) == 0 {
		return nil, providers.NewBackendError(providerName, "response contained no content", httpResp.StatusCode, nil)
	}

	content := data.Content[0].Text
	tokens := data.Usage.InputTokens + data.Usage.OutputTokens
	if tokens == 0 {
		tokens = providers.EstimateTokens(content)
	}

	return &providers.Response{
		Content:       content,
		TokensUsed:    tokens,
		EstimatedCost: a.EstimateCost(tokens, req.Model),
		Provider:      providerName,
		Model:         req.Model,
	}, nil
}

// HealthCheck probes GET /models with a short timeout
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.Endpoint+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// ListModels fetches GET /models, falling back to the configured list on
// failure.
func (a *Adapter) ListModels(ctx context.Context) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.Endpoint+"/models", nil)
	if err != nil {
		return a.cfg.AvailableModels
	}
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Debug("failed to fetch anthropic models", zap.Error(err))
		return a.cfg.AvailableModels
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Debug("failed to fetch anthropic models", zap.Int("status", resp.StatusCode))
		return a.cfg.AvailableModels
	}

	var data modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return a.cfg.AvailableModels
	}

	models := make([]string, 0, len(data.Data))
	for _, m := range data.Data {
		models = append(models, m.ID)
	}
	return models
}

// EstimateCost computes cost against the per-model pricing table
func (a *Adapter) EstimateCost(tokens int, model string) float64 {
	return providers.CostFor(a.cfg, tokens, model)
}

// Close releases pooled connections
func (a *Adapter) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}
