package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upb/llm-gateway/config"
	"github.com/upb/llm-gateway/services/providers"
	"go.uber.org/zap"
)

const (
	providerName = "gemini"
	probeTimeout = 5 * time.Second
)

// Adapter implements the Provider interface for the Google Gemini
// generateContent API. Gemini authenticates with a key query parameter
// instead of a header.
type Adapter struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a new Gemini adapter
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

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type modelsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate performs a completion against POST /models/{model}:generateContent
func (a *Adapter) Generate(ctx context.Context, req providers.Request) (*providers.Response, error) {
	generationConfig := map[string]interface{}{
		"temperature":     req.Temperature,
		"maxOutputTokens": req.MaxTokens,
	}
	for k, v := range req.Extra {
		generationConfig[k] = v
	}

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": req.Message}}},
		},
		"generationConfig": generationConfig,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, providers.NewBackendError(providerName, "failed to marshal request", 0, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.cfg.Endpoint, req.Model, a.cfg.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
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

	var data generateContentResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, providers.NewBackendError(providerName, "failed to unmarshal response", httpResp.StatusCode, err)
	}
	if len(data.Candidates) == 0 || len(data.Candidates[0].Content.Parts) == 0 {
		return nil, providers.NewBackendError(providerName, "response contained no candidates", httpResp.StatusCode, nil)
	}

	content := data.Candidates[0].Content.Parts[0].Text
	tokens := data.UsageMetadata.TotalTokenCount
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

	url := fmt.Sprintf("%s/models?key=%s", a.cfg.Endpoint, a.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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

// ListModels fetches GET /models, falling back to the configured list on
// failure. Gemini prefixes model names with "models/".
func (a *Adapter) ListModels(ctx context.Context) []string {
	url := fmt.Sprintf("%s/models?key=%s", a.cfg.Endpoint, a.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return a.cfg.AvailableModels
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Debug("failed to fetch gemini models", zap.Error(err))
		return a.cfg.AvailableModels
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Debug("failed to fetch gemini models", zap.Int("status", resp.StatusCode))
		return a.cfg.AvailableModels
	}

	var data modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return a.cfg.AvailableModels
	}

	models := make([]string, 0, len(data.Models))
	for _, m := range data.Models {
		models = append(models, strings.TrimPrefix(m.Name, "models/"))
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
