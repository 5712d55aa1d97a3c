package llm

import "testing"

func TestDiscoverConfig_PrefersDeepSeek(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-ds")
	t.Setenv("DEEPSEEK_API_BASE", "https://api.deepseek.com/v1")
	t.Setenv("OPENAI_API_KEY", "sk-oa")

	cfg, found := DiscoverConfig()
	if !found {
		t.Fatal("expected credentials to be discovered")
	}
	if cfg.Provider != "deepseek" {
		t.Fatalf("expected deepseek provider, got %q", cfg.Provider)
	}
	if cfg.DeepSeek.APIKey != "sk-ds" {
		t.Fatalf("unexpected key: %q", cfg.DeepSeek.APIKey)
	}
}

func TestDiscoverConfig_FallsThroughToOpenAI(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-oa")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, found := DiscoverConfig()
	if !found {
		t.Fatal("expected credentials to be discovered")
	}
	if cfg.Provider != "openai" {
		t.Fatalf("expected openai provider, got %q", cfg.Provider)
	}
}

func TestDiscoverConfig_ExplicitProviderWins(t *testing.T) {
	// A DeepSeek key is present, but the operator asked for Anthropic.
	t.Setenv("DEEPSEEK_API_KEY", "sk-ds")
	t.Setenv("EXAMFORGE_LLM_PROVIDER", "anthropic")
	t.Setenv("EXAMFORGE_ANTHROPIC_API_KEY", "sk-ant")

	cfg, found := DiscoverConfig()
	if !found {
		t.Fatal("explicit provider must count as discovered")
	}
	if cfg.Provider != "anthropic" {
		t.Fatalf("provider = %q, want anthropic", cfg.Provider)
	}
	if cfg.Anthropic.APIKey != "sk-ant" {
		t.Fatalf("unexpected key: %q", cfg.Anthropic.APIKey)
	}
}

func TestDiscoverConfig_ExplicitOffline(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-ds")
	t.Setenv("EXAMFORGE_LLM_PROVIDER", "offline")

	cfg, found := DiscoverConfig()
	if !found {
		t.Fatal("explicit provider must count as discovered")
	}
	if cfg.Provider != "offline" {
		t.Fatalf("provider = %q, want offline", cfg.Provider)
	}
}

func TestDiscoverConfig_VendorKeyNames(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("EXAMFORGE_OPENAI_API_KEY", "")
	t.Setenv("EXAMFORGE_ANTHROPIC_API_KEY", "")
	t.Setenv("EXAMFORGE_LLM_PROVIDER", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, found := DiscoverConfig()
	if !found {
		t.Fatal("expected credentials to be discovered")
	}
	if cfg.Provider != "anthropic" || cfg.Anthropic.APIKey != "sk-ant" {
		t.Fatalf("cfg = %q / %q", cfg.Provider, cfg.Anthropic.APIKey)
	}
}

func TestConfigSetModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	cfg.SetModel("gpt-4.1-mini")
	if cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Errorf("openai model = %q", cfg.OpenAI.Model)
	}
	if cfg.DeepSeek.Model != "deepseek-chat" {
		t.Errorf("other providers must be untouched, got %q", cfg.DeepSeek.Model)
	}
}

func TestDiscoverConfig_NoCredentials(t *testing.T) {
	for _, v := range []string{
		"DEEPSEEK_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"GEMINI_API_KEY", "EXAMFORGE_OPENAI_API_KEY",
		"EXAMFORGE_ANTHROPIC_API_KEY", "EXAMFORGE_GEMINI_API_KEY",
		"EXAMFORGE_LLM_PROVIDER",
	} {
		t.Setenv(v, "")
	}

	_, found := DiscoverConfig()
	if found {
		t.Fatal("expected no credentials to be discovered")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "deepseek"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error without API key")
	}

	cfg.DeepSeek.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	cfg.Provider = "offline"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("offline provider must not require a key: %v", err)
	}

	cfg.Provider = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestConfigFromEnv_DeepSeekVars(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-env")
	t.Setenv("DEEPSEEK_API_BASE", "https://proxy.internal/v1")
	t.Setenv("DEEPSEEK_MODEL", "deepseek-reasoner")

	cfg := ConfigFromEnv()
	if cfg.DeepSeek.APIKey != "sk-env" {
		t.Errorf("APIKey = %q", cfg.DeepSeek.APIKey)
	}
	if cfg.DeepSeek.BaseURL != "https://proxy.internal/v1" {
		t.Errorf("BaseURL = %q", cfg.DeepSeek.BaseURL)
	}
	if cfg.DeepSeek.Model != "deepseek-reasoner" {
		t.Errorf("Model = %q", cfg.DeepSeek.Model)
	}
}
