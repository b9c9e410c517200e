package handlers

import (
	"net/http"

	"github.com/upb/llm-gateway/utils"
	"go.uber.org/zap"
)

// ProvidersHandler handles provider listing HTTP requests
type ProvidersHandler struct {
	service LLMService
	logger  *zap.Logger
}

// NewProvidersHandler creates a new ProvidersHandler
func NewProvidersHandler(service LLMService, logger *zap.Logger) *ProvidersHandler {
	return &ProvidersHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /api/v1/providers
func (h *ProvidersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	info := h.service.ListProviders()
	if err := utils.WriteJSON(w, http.StatusOK, info); err != nil {
		h.logger.Error("failed to write providers response", zap.Error(err))
	}
}
