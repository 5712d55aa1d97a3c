package synth

import (
	"context"

	"github.com/abhisek/examforge/internal/llm"
)

// promptedStage bundles the fixed parameters of one pipeline stage.
// The Planner, Writer and Reviewer differ only in prompt, schema and
// sampling knobs; the call shape is identical.
type promptedStage struct {
	purpose     string
	system      string
	schema      *llm.Schema
	maxTokens   int
	temperature float64
}

// generate performs one single-turn call tagged with the stage purpose.
func (s promptedStage) generate(ctx context.Context, provider llm.Provider, userMsg string) (*llm.Response, error) {
	ctx = llm.WithPurpose(ctx, s.purpose)
	return provider.Generate(ctx, llm.Request{
		System:      s.system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      s.schema,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
}
