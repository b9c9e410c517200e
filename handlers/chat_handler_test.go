package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/llm-gateway/services/llm"
	"github.com/upb/llm-gateway/services/providers"
)

type fakeLLMService struct {
	result     *llm.GenerateResult
	err        error
	calls      int
	lastParams llm.GenerateParams
	statuses   map[string]llm.ProviderHealth
	info       llm.ProvidersInfo
}

func (f *fakeLLMService) Generate(_ context.Context, params llm.GenerateParams) (*llm.GenerateResult, error) {
	f.calls++
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeLLMService) HealthCheck(_ context.Context) map[string]llm.ProviderHealth {
	return f.statuses
}

func (f *fakeLLMService) ListProviders() llm.ProvidersInfo {
	return f.info
}

func postChat(t *testing.T, h *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleChat(rec, req)
	return rec
}

func TestHandleChatSuccess(t *testing.T) {
	svc := &fakeLLMService{result: &llm.GenerateResult{
		Response:     "Hello!",
		Status:       llm.StatusSuccess,
		ProviderUsed: "ollama",
		ModelUsed:    "llama2",
		TokensUsed:   12,
		Cost:         0,
	}}
	h := NewChatHandler(svc, zap.NewNop())

	rec := postChat(t, h, `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hello!", resp.Response)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "ollama", resp.ProviderUsed)
	assert.Equal(t, "llama2", resp.ModelUsed)
	require.NotNil(t, resp.TokensUsed)
	assert.Equal(t, 12, *resp.TokensUsed)
	require.NotNil(t, resp.Cost)
	assert.Zero(t, *resp.Cost)
}

func TestHandleChatPassesOverrides(t *testing.T) {
	svc := &fakeLLMService{result: &llm.GenerateResult{Status: llm.StatusSuccess}}
	h := NewChatHandler(svc, zap.NewNop())

	rec := postChat(t, h, `{
		"message": "hi",
		"provider": "openai",
		"model": "gpt-4",
		"temperature": 0.2,
		"max_tokens": 500,
		"extra_params": {"top_p": 0.9}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "openai", svc.lastParams.Provider)
	assert.Equal(t, "gpt-4", svc.lastParams.Model)
	require.NotNil(t, svc.lastParams.Temperature)
	assert.InDelta(t, 0.2, *svc.lastParams.Temperature, 0.0001)
	require.NotNil(t, svc.lastParams.MaxTokens)
	assert.Equal(t, 500, *svc.lastParams.MaxTokens)
	assert.Equal(t, 0.9, svc.lastParams.ExtraParams["top_p"])
}

func TestHandleChatInvalidBody(t *testing.T) {
	svc := &fakeLLMService{}
	h := NewChatHandler(svc, zap.NewNop())

	rec := postChat(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, svc.calls)
}

func TestHandleChatValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing message", `{}`},
		{"empty message", `{"message":""}`},
		{"temperature too high", `{"message":"hi","temperature":2.5}`},
		{"temperature negative", `{"message":"hi","temperature":-0.1}`},
		{"max_tokens zero", `{"message":"hi","max_tokens":0}`},
		{"max_tokens too large", `{"message":"hi","max_tokens":100000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLLMService{result: &llm.GenerateResult{}}
			h := NewChatHandler(svc, zap.NewNop())

			rec := postChat(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			// Validation rejects before any provider is contacted.
			assert.Equal(t, 0, svc.calls)
		})
	}
}

func TestHandleChatErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "unknown provider",
			err:        &providers.NotConfiguredError{Provider: "mystery"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "declared but unimplemented provider",
			err:        &providers.NotImplementedError{Provider: "future"},
			wantStatus: http.StatusNotImplemented,
		},
		{
			name: "all providers failed",
			err: &providers.AllFailedError{Attempts: []providers.Attempt{
				{Provider: "ollama", Err: providers.NewBackendError("ollama", "down", 0, nil)},
			}},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "single backend failure",
			err:        providers.NewBackendError("openai", "rate limited", 429, nil),
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewChatHandler(&fakeLLMService{err: tt.err}, zap.NewNop())

			rec := postChat(t, h, `{"message":"hi"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}
