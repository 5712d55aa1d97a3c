package llm

import "fmt"

const defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"

// deepseekModels maps friendly names to DeepSeek model IDs.
var deepseekModels = map[string]string{
	"chat":     "deepseek-chat",
	"reasoner": "deepseek-reasoner",
}

// DeepSeekProvider wraps OpenAIProvider with DeepSeek-specific defaults.
// DeepSeek exposes an OpenAI-compatible API, so the underlying SDK is reused.
type DeepSeekProvider struct {
	*OpenAIProvider
}

// NewDeepSeekProvider creates a provider targeting the DeepSeek API.
func NewDeepSeekProvider(cfg DeepSeekConfig) (*DeepSeekProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultDeepSeekBaseURL
	}

	oaiCfg := OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   resolveModel(cfg.Model, deepseekModels),
		BaseURL: baseURL,
	}

	inner, err := NewOpenAIProvider(oaiCfg)
	if err != nil {
		return nil, err
	}

	return &DeepSeekProvider{OpenAIProvider: inner}, nil
}
