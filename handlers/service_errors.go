package handlers

import (
	"net/http"

	"github.com/upb/llm-gateway/services/providers"
	"github.com/upb/llm-gateway/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps dispatch errors to HTTP responses. Provider
// failures are upstream problems (502/503), configuration mistakes are
// client or deployment problems (400/501).
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var writeErr error
	switch {
	case providers.IsNotConfigured(err):
		writeErr = utils.WriteBadRequest(w, err.Error(), nil)

	case providers.IsNotImplemented(err):
		writeErr = utils.WriteNotImplemented(w, err.Error())

	case providers.IsAllFailed(err):
		writeErr = utils.WriteServiceUnavailable(w, err.Error())

	case providers.IsBackendError(err):
		writeErr = utils.WriteBadGateway(w, err.Error())

	default:
		logger.Error("unhandled service error", zap.Error(err))
		writeErr = utils.WriteInternalError(w, "")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}
