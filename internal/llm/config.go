package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "deepseek", "openai", "anthropic", "gemini", "offline", "mock"
	Provider string

	DeepSeek  DeepSeekConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	// Timeout is the maximum duration for a single LLM request
	// (one attempt, not including retries). Default: 60s.
	Timeout time.Duration
}

// DeepSeekConfig holds DeepSeek-specific configuration. DeepSeek exposes
// an OpenAI-compatible API, so this feeds the OpenAI provider under a
// different base URL.
type DeepSeekConfig struct {
	APIKey  string
	Model   string // Default: "deepseek-chat"
	BaseURL string // Default: "https://api.deepseek.com/v1"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "deepseek",
		DeepSeek: DeepSeekConfig{
			Model: "deepseek-chat",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     20 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values. DEEPSEEK_* are the names the pipeline
// has always used; EXAMFORGE_* override provider selection and the
// non-DeepSeek backends.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("EXAMFORGE_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	if k := os.Getenv("DEEPSEEK_API_KEY"); k != "" {
		cfg.DeepSeek.APIKey = k
	}
	if u := os.Getenv("DEEPSEEK_API_BASE"); u != "" {
		cfg.DeepSeek.BaseURL = u
	}
	if m := os.Getenv("DEEPSEEK_MODEL"); m != "" {
		cfg.DeepSeek.Model = m
	}

	if k := os.Getenv("EXAMFORGE_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("EXAMFORGE_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("EXAMFORGE_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("EXAMFORGE_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("EXAMFORGE_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	if k := os.Getenv("EXAMFORGE_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("EXAMFORGE_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	return cfg
}

// DiscoverConfig resolves the provider from the environment. An
// explicit EXAMFORGE_LLM_PROVIDER wins outright; otherwise standard API
// key env vars are probed in priority order (DeepSeek → OpenAI →
// Anthropic → Gemini) and the first provider whose key is found is
// selected. Returns (Config{}, false) when nothing selects a provider;
// only then may the caller fall back to offline placeholder output.
func DiscoverConfig() (Config, bool) {
	cfg := ConfigFromEnv()

	// The vendors' own key names work alongside the EXAMFORGE_* ones.
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if os.Getenv("EXAMFORGE_LLM_PROVIDER") != "" {
		return cfg, true
	}

	if cfg.DeepSeek.APIKey != "" {
		cfg.Provider = "deepseek"
		return cfg, true
	}
	if cfg.OpenAI.APIKey != "" {
		cfg.Provider = "openai"
		return cfg, true
	}
	if cfg.Anthropic.APIKey != "" {
		cfg.Provider = "anthropic"
		return cfg, true
	}
	if cfg.Gemini.APIKey != "" {
		cfg.Provider = "gemini"
		return cfg, true
	}

	return Config{}, false
}

// SetModel overrides the model ID of the currently selected provider.
func (c *Config) SetModel(model string) {
	switch c.Provider {
	case "deepseek":
		c.DeepSeek.Model = model
	case "openai":
		c.OpenAI.Model = model
	case "anthropic":
		c.Anthropic.Model = model
	case "gemini":
		c.Gemini.Model = model
	}
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "deepseek":
		if c.DeepSeek.APIKey == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY is required for the deepseek provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("EXAMFORGE_OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("EXAMFORGE_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("EXAMFORGE_GEMINI_API_KEY is required for the gemini provider")
		}
	case "offline", "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
