package providers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *BackendError
		want string
	}{
		{
			name: "message only",
			err:  &BackendError{Provider: "ollama", Message: "request failed"},
			want: `provider "ollama": request failed`,
		},
		{
			name: "with status",
			err:  &BackendError{Provider: "openai", Message: "API error", StatusCode: 429},
			want: `provider "openai": API error (status 429)`,
		},
		{
			name: "with cause",
			err:  NewBackendError("gemini", "request failed", 0, cause),
			want: `provider "gemini": request failed: connection refused`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestBackendErrorUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := NewBackendError("anthropic", "request failed", 0, cause)
	assert.ErrorIs(t, err, cause)
}

func TestAllFailedErrorListsAttemptOrder(t *testing.T) {
	err := &AllFailedError{Attempts: []Attempt{
		{Provider: "ollama", Err: errors.New("down")},
		{Provider: "openai", Err: errors.New("429")},
		{Provider: "anthropic", Err: errors.New("500")},
	}}
	assert.Equal(t, "all providers failed: ollama, openai, anthropic", err.Error())
}

func TestErrorTypeHelpers(t *testing.T) {
	notConfigured := &NotConfiguredError{Provider: "x"}
	notImplemented := &NotImplementedError{Provider: "x"}
	backend := NewBackendError("x", "boom", 500, nil)
	allFailed := &AllFailedError{Attempts: []Attempt{{Provider: "x", Err: backend}}}

	assert.True(t, IsNotConfigured(notConfigured))
	assert.True(t, IsNotImplemented(notImplemented))
	assert.True(t, IsBackendError(backend))
	assert.True(t, IsAllFailed(allFailed))

	// Wrapped errors still match.
	assert.True(t, IsNotConfigured(fmt.Errorf("dispatch: %w", notConfigured)))
	assert.True(t, IsBackendError(fmt.Errorf("dispatch: %w", backend)))

	// Cross-type checks do not.
	assert.False(t, IsNotConfigured(notImplemented))
	assert.False(t, IsAllFailed(backend))
	assert.False(t, IsBackendError(errors.New("plain")))
}

func TestCostFor(t *testing.T) {
	perModel := testProvidersConfig().Configs["openai"]
	flat := testProvidersConfig().Configs["ollama"]
	flat.CostPer1KTokens = 0.001

	tests := []struct {
		name   string
		tokens int
		model  string
		want   float64
	}{
		{"per-model known", 2000, "gpt-4", 0.06},
		{"per-model unknown", 2000, "gpt-unknown", 0},
		{"zero tokens", 0, "gpt-4", 0},
		{"negative tokens", -5, "gpt-4", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CostFor(perModel, tt.tokens, tt.model), 1e-9)
		})
	}

	assert.InDelta(t, 0.0015, CostFor(flat, 1500, "anything"), 1e-9)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("hello"))
	assert.Equal(t, 13, EstimateTokens("one two three four five six seven eight nine ten"))
}
