package llm

import (
	"context"
	"fmt"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout, logging and retry
// middleware: caller → retry → logging → timeout → base.
func NewProvider(ctx context.Context, cfg Config, rec Recorder) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "deepseek":
		base, err = NewDeepSeekProvider(cfg.DeepSeek)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "offline":
		base = NewOfflineProvider()
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	wrapped := WithTimeout(base, cfg.Timeout)
	if rec != nil {
		wrapped = WithLogging(wrapped, rec)
	}
	return WithRetry(wrapped, cfg.Retry), nil
}
