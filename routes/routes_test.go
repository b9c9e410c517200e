package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/llm-gateway/app"
	"github.com/upb/llm-gateway/config"
)

// newTestDeps wires the full stack against a fake Ollama backend.
func newTestDeps(t *testing.T) *app.Dependencies {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			json.NewEncoder(w).Encode(map[string]string{"response": "routed reply"})
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]interface{}{"models": []map[string]string{{"name": "llama2"}}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(backend.Close)

	cfg := &config.Config{
		Providers: config.ProvidersConfig{
			Enabled:            []string{"ollama"},
			DefaultProvider:    "ollama",
			DefaultModel:       "llama2",
			DefaultTemperature: 0.7,
			DefaultMaxTokens:   150,
			Configs: map[string]config.ProviderConfig{
				"ollama": {
					Endpoint:        backend.URL,
					DefaultModel:    "llama2",
					AvailableModels: []string{"llama2"},
					Type:            config.ProviderTypeLocal,
					Timeout:         5 * time.Second,
				},
			},
		},
		Observability: config.ObservabilityConfig{LogLevel: "info", LogFormat: "json"},
	}

	deps, err := app.NewDependencies(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(deps.Close)
	return deps
}

func TestRoutes(t *testing.T) {
	router := SetupRoutes(newTestDeps(t))

	t.Run("banner", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Universal LLM Gateway API")
	})

	t.Run("liveness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("chat", func(t *testing.T) {
		body := bytes.NewBufferString(`{"message":"hi"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "routed reply", resp["response"])
		assert.Equal(t, "success", resp["status"])
		assert.Equal(t, "ollama", resp["provider_used"])
	})

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"healthy"`)
	})

	t.Run("providers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"default_provider":"ollama"`)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"not_found"}`, rec.Body.String())
	})
}
