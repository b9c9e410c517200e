package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/llm-gateway/services/llm"
	"github.com/upb/llm-gateway/utils"
	"go.uber.org/zap"
)

const healthSweepTimeout = 10 * time.Second

// HealthResponse reports overall and per-provider health
type HealthResponse struct {
	Status    string                        `json:"status"`
	Providers map[string]llm.ProviderHealth `json:"providers"`
	Timestamp string                        `json:"timestamp"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service LLMService
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(service LLMService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleHealth handles GET /api/v1/health: probes every provider and reports
// healthy when at least one is reachable.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthSweepTimeout)
	defer cancel()

	statuses := h.service.HealthCheck(ctx)

	status := "unhealthy"
	httpStatus := http.StatusServiceUnavailable
	if llm.IsHealthy(statuses) {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	resp := HealthResponse{
		Status:    status,
		Providers: statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := utils.WriteJSON(w, httpStatus, resp); err != nil {
		h.logger.Error("failed to write health response", zap.Error(err))
	}
}

// HandleLiveness handles GET /healthz
// Basic liveness check - always returns 200 if service is running
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
