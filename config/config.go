package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Providers     ProvidersConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ProvidersConfig holds the LLM provider surface: which providers are
// enabled, gateway-wide defaults, the fallback policy, and one ProviderConfig
// per provider name.
type ProvidersConfig struct {
	Enabled             []string
	DefaultProvider     string
	DefaultModel        string
	DefaultTemperature  float64
	DefaultMaxTokens    int
	EnableFallback      bool
	FallbackProviders   []string
	MaxFallbackAttempts int
	Configs             map[string]ProviderConfig
}

// ProviderType distinguishes local (free) providers from remote (metered) ones
type ProviderType string

const (
	ProviderTypeLocal  ProviderType = "local"
	ProviderTypeRemote ProviderType = "remote"
)

// ProviderConfig holds the static descriptor for a single provider.
// CostPer1KTokens applies when CostPerModel is empty; otherwise the per-model
// map wins and unknown models cost nothing.
type ProviderConfig struct {
	Endpoint          string
	APIKey            string
	DefaultModel      string
	AvailableModels   []string
	SupportsStreaming bool
	SupportsFunctions bool
	Type              ProviderType
	Timeout           time.Duration
	CostPer1KTokens   float64
	CostPerModel      map[string]float64
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Providers: ProvidersConfig{
			Enabled:             getEnvAsList("LLM_PROVIDERS", []string{"ollama", "openai", "anthropic", "gemini"}),
			DefaultProvider:     getEnv("DEFAULT_LLM_PROVIDER", "ollama"),
			DefaultModel:        getEnv("DEFAULT_LLM_MODEL", "llama2"),
			DefaultTemperature:  getEnvAsFloat("DEFAULT_TEMPERATURE", 0.7),
			DefaultMaxTokens:    getEnvAsInt("DEFAULT_MAX_TOKENS", 150),
			EnableFallback:      getEnvAsBool("ENABLE_FALLBACK", true),
			FallbackProviders:   getEnvAsList("FALLBACK_PROVIDERS", []string{"openai", "anthropic", "gemini"}),
			MaxFallbackAttempts: getEnvAsInt("MAX_FALLBACK_ATTEMPTS", 3),
			Configs:             loadProviderConfigs(),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set.
// A remote provider without an API key is deliberately NOT an error here:
// operators may run degraded (local-only) and the registry warns about it.
func (c *Config) Validate() error {
	if len(c.Providers.Enabled) == 0 {
		return fmt.Errorf("at least one LLM provider must be enabled")
	}

	if !contains(c.Providers.Enabled, c.Providers.DefaultProvider) {
		return fmt.Errorf("default provider %q must be in LLM_PROVIDERS", c.Providers.DefaultProvider)
	}

	for _, name := range c.Providers.Enabled {
		pc, ok := c.Providers.Configs[name]
		if !ok {
			return fmt.Errorf("missing configuration for provider %q", name)
		}
		if pc.Endpoint == "" {
			return fmt.Errorf("provider %q missing endpoint", name)
		}
	}

	if c.Providers.MaxFallbackAttempts < 0 {
		return fmt.Errorf("MAX_FALLBACK_ATTEMPTS cannot be negative")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadProviderConfigs builds the descriptor set from static defaults overlaid
// with per-provider env overrides ({NAME}_ENDPOINT, {NAME}_API_KEY,
// {NAME}_DEFAULT_MODEL, {NAME}_TIMEOUT).
func loadProviderConfigs() map[string]ProviderConfig {
	configs := defaultProviderConfigs()

	for name, pc := range configs {
		prefix := strings.ToUpper(name)
		pc.Endpoint = getEnv(prefix+"_ENDPOINT", pc.Endpoint)
		pc.APIKey = getEnv(prefix+"_API_KEY", pc.APIKey)
		pc.DefaultModel = getEnv(prefix+"_DEFAULT_MODEL", pc.DefaultModel)
		pc.Timeout = getEnvAsDuration(prefix+"_TIMEOUT", pc.Timeout)
		configs[name] = pc
	}

	return configs
}

// defaultProviderConfigs returns the built-in descriptor set for the four
// supported providers. Pricing is USD per 1K tokens.
func defaultProviderConfigs() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"ollama": {
			Endpoint:          "http://localhost:11434",
			DefaultModel:      "llama2",
			AvailableModels:   []string{"llama2", "codellama", "mistral"},
			SupportsStreaming: true,
			Type:              ProviderTypeLocal,
			Timeout:           60 * time.Second,
			CostPer1KTokens:   0.0,
		},
		"openai": {
			Endpoint:          "https://api.openai.com/v1",
			DefaultModel:      "gpt-3.5-turbo",
			AvailableModels:   []string{"gpt-4", "gpt-3.5-turbo", "gpt-4-turbo"},
			SupportsStreaming: true,
			SupportsFunctions: true,
			Type:              ProviderTypeRemote,
			Timeout:           30 * time.Second,
			CostPerModel: map[string]float64{
				"gpt-4":         0.03,
				"gpt-4-turbo":   0.01,
				"gpt-3.5-turbo": 0.002,
			},
		},
		"anthropic": {
			Endpoint:          "https://api.anthropic.com/v1",
			DefaultModel:      "claude-3-sonnet-20240229",
			AvailableModels:   []string{"claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-haiku-20240307"},
			SupportsStreaming: true,
			SupportsFunctions: true,
			Type:              ProviderTypeRemote,
			Timeout:           30 * time.Second,
			CostPerModel: map[string]float64{
				"claude-3-opus-20240229":   0.015,
				"claude-3-sonnet-20240229": 0.003,
				"claude-3-haiku-20240307":  0.00025,
			},
		},
		"gemini": {
			Endpoint:          "https://generativelanguage.googleapis.com/v1beta",
			DefaultModel:      "gemini-pro",
			AvailableModels:   []string{"gemini-pro", "gemini-pro-vision"},
			SupportsStreaming: true,
			Type:              ProviderTypeRemote,
			Timeout:           30 * time.Second,
			CostPerModel: map[string]float64{
				"gemini-pro": 0.0005,
			},
		},
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
