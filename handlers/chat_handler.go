package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/upb/llm-gateway/services/llm"
	"github.com/upb/llm-gateway/utils"
	"go.uber.org/zap"
)

// ChatRequest represents the inbound chat payload. Bounds are enforced here,
// before any provider is contacted.
type ChatRequest struct {
	Message     string                 `json:"message" validate:"required"`
	Temperature *float64               `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int                   `json:"max_tokens,omitempty" validate:"omitempty,gte=1,lte=8192"`
	Provider    string                 `json:"provider,omitempty"`
	Model       string                 `json:"model,omitempty"`
	ExtraParams map[string]interface{} `json:"extra_params,omitempty"`
}

// ChatResponse represents the normalized chat result
type ChatResponse struct {
	Response     string   `json:"response"`
	Status       string   `json:"status"`
	ProviderUsed string   `json:"provider_used"`
	ModelUsed    string   `json:"model_used"`
	TokensUsed   *int     `json:"tokens_used,omitempty"`
	Cost         *float64 `json:"cost,omitempty"`
	LatencyMs    int64    `json:"latency_ms,omitempty"`
}

// LLMService defines the dispatch operations the handlers depend on
type LLMService interface {
	Generate(ctx context.Context, params llm.GenerateParams) (*llm.GenerateResult, error)
	HealthCheck(ctx context.Context) map[string]llm.ProviderHealth
	ListProviders() llm.ProvidersInfo
}

// ChatHandler handles chat completion HTTP requests
type ChatHandler struct {
	service  LLMService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service LLMService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// HandleChat handles POST /api/v1/chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "invalid request body", nil)
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		_ = utils.WriteBadRequest(w, "validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	h.logger.Info("dispatching chat request",
		zap.String("request_id", requestID),
		zap.String("provider_override", req.Provider),
		zap.String("model_override", req.Model))

	start := time.Now()
	result, err := h.service.Generate(r.Context(), llm.GenerateParams{
		Message:     req.Message,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Provider:    req.Provider,
		Model:       req.Model,
		ExtraParams: req.ExtraParams,
	})
	if err != nil {
		h.logger.Error("chat dispatch failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	latencyMs := time.Since(start).Milliseconds()

	tokens := result.TokensUsed
	cost := result.Cost
	resp := ChatResponse{
		Response:     result.Response,
		Status:       result.Status,
		ProviderUsed: result.ProviderUsed,
		ModelUsed:    result.ModelUsed,
		TokensUsed:   &tokens,
		Cost:         &cost,
		LatencyMs:    latencyMs,
	}

	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write chat response", zap.Error(err))
	}
}
