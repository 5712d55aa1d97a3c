package llm

import "testing"

func TestNewDeepSeekProvider(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		p, err := NewDeepSeekProvider(DeepSeekConfig{
			APIKey: "sk-test",
			Model:  "deepseek-chat",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ModelID() != "deepseek-chat" {
			t.Errorf("model = %q, want %q", p.ModelID(), "deepseek-chat")
		}
	})

	t.Run("friendly model names", func(t *testing.T) {
		p, err := NewDeepSeekProvider(DeepSeekConfig{
			APIKey: "sk-test",
			Model:  "reasoner",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ModelID() != "deepseek-reasoner" {
			t.Errorf("model = %q, want %q", p.ModelID(), "deepseek-reasoner")
		}
	})

	t.Run("empty API key", func(t *testing.T) {
		_, err := NewDeepSeekProvider(DeepSeekConfig{Model: "deepseek-chat"})
		if err == nil {
			t.Fatal("expected error for empty API key")
		}
	})
}
