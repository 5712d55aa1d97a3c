package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// OfflineModelID is the model name reported by the offline provider.
// Pipeline stages check Response.Model against it to tag placeholder output.
const OfflineModelID = "offline"

// offlineHint is appended to every placeholder so nobody mistakes the
// output for real generations.
const offlineHint = "(configure DEEPSEEK_API_KEY and DEEPSEEK_API_BASE for real generations)"

// OfflineProvider is the no-credentials fallback. It never touches the
// network and returns deterministic placeholder text derived from the
// prompt, so the whole pipeline can be exercised without an API key.
// The factory selects it only when no credentials were discovered and
// never silently overrides a configured provider.
type OfflineProvider struct{}

// NewOfflineProvider creates the offline fallback provider.
func NewOfflineProvider() *OfflineProvider {
	return &OfflineProvider{}
}

func (p *OfflineProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt := firstUserMessage(req)
	purpose := PurposeFrom(ctx)

	var content json.RawMessage
	switch purpose {
	case PurposeReview:
		// Mid-scale verdict, same shape a real reviewer returns.
		verdict := map[string]any{
			"score":  5.0,
			"review": placeholder("Review", prompt),
		}
		b, err := json.Marshal(verdict)
		if err != nil {
			return nil, fmt.Errorf("marshal offline verdict: %w", err)
		}
		content = b
	case PurposePlan:
		content = json.RawMessage(placeholder("Planner", prompt))
	case PurposeNote:
		content = json.RawMessage(placeholder("TeachingNote", prompt))
	default:
		content = json.RawMessage(placeholder("QA", prompt))
	}

	return &Response{
		Content:    content,
		Model:      OfflineModelID,
		StopReason: "end",
	}, nil
}

func (p *OfflineProvider) ModelID() string {
	return OfflineModelID
}

// placeholder builds the tagged offline message: the role tag, a prompt
// excerpt for traceability, and the configuration hint.
func placeholder(tag, prompt string) string {
	return fmt.Sprintf("[%s] %s ... %s", tag, truncateRunes(prompt, 120), offlineHint)
}

func firstUserMessage(req Request) string {
	for _, m := range req.Messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return req.System
}

// truncateRunes shortens s to at most n runes. The prompts are Chinese,
// so byte-slicing would split characters.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return strings.TrimSpace(s)
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
