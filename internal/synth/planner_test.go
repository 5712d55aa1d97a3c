package synth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/abhisek/examforge/internal/llm"
)

func planResponse(t *testing.T, items []planItem) llm.MockResponse {
	t.Helper()
	b, err := json.Marshal(planDocument{Items: items})
	if err != nil {
		t.Fatal(err)
	}
	return llm.MockResponse{Content: b}
}

func TestPlannerExactCount(t *testing.T) {
	mock := llm.NewMockProvider(planResponse(t, []planItem{
		{SubTopic: "长期股权投资", Difficulty: "hard"},
		{SubTopic: "收入确认", Difficulty: "medium"},
		{SubTopic: "存货计价", Difficulty: "easy"},
	}))
	p := NewPlanner(mock, DefaultConfig(), zap.NewNop())

	specs, err := p.Plan(context.Background(), "会计", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("len = %d, want 3", len(specs))
	}
	if specs[0].SubTopic != "长期股权投资" || specs[0].Difficulty != DifficultyHard {
		t.Errorf("spec[0] = %+v", specs[0])
	}
	for i, s := range specs {
		if s.Index != i {
			t.Errorf("spec[%d].Index = %d", i, s.Index)
		}
		if s.Synthetic {
			t.Errorf("spec[%d] should not be synthetic", i)
		}
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestPlannerPadsShortPlan(t *testing.T) {
	mock := llm.NewMockProvider(planResponse(t, []planItem{
		{SubTopic: "增值税", Difficulty: "easy"},
		{SubTopic: "企业所得税", Difficulty: "hard"},
	}))
	p := NewPlanner(mock, DefaultConfig(), zap.NewNop())

	specs, err := p.Plan(context.Background(), "税法", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 5 {
		t.Fatalf("len = %d, want 5", len(specs))
	}

	// The two planned sub-topics cycle; the padded tail is synthetic
	// with incremented variants.
	if specs[2].SubTopic != "增值税" || !specs[2].Synthetic || specs[2].Variant != 1 {
		t.Errorf("spec[2] = %+v", specs[2])
	}
	if specs[4].SubTopic != "增值税" || specs[4].Variant != 2 {
		t.Errorf("spec[4] = %+v", specs[4])
	}
	if specs[0].Synthetic || specs[1].Synthetic {
		t.Error("planned specs must not be synthetic")
	}
}

func TestPlannerTruncatesLongPlan(t *testing.T) {
	mock := llm.NewMockProvider(planResponse(t, []planItem{
		{SubTopic: "a", Difficulty: "easy"},
		{SubTopic: "b", Difficulty: "easy"},
		{SubTopic: "c", Difficulty: "easy"},
		{SubTopic: "d", Difficulty: "easy"},
	}))
	p := NewPlanner(mock, DefaultConfig(), zap.NewNop())

	specs, err := p.Plan(context.Background(), "审计", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("len = %d, want 2", len(specs))
	}
}

func TestPlannerUnknownDifficultyFallsBackToCycle(t *testing.T) {
	mock := llm.NewMockProvider(planResponse(t, []planItem{
		{SubTopic: "合并报表", Difficulty: "expert"},
	}))
	cfg := DefaultConfig()
	p := NewPlanner(mock, cfg, zap.NewNop())

	specs, err := p.Plan(context.Background(), "会计", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if specs[0].Difficulty != cfg.difficultyFor(0) {
		t.Errorf("difficulty = %q", specs[0].Difficulty)
	}
}

func TestPlannerSynthesizesOnGarbage(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`抱歉，我不能以 JSON 回答。`),
	})
	p := NewPlanner(mock, DefaultConfig(), zap.NewNop())

	specs, err := p.Plan(context.Background(), "财务成本管理", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 4 {
		t.Fatalf("len = %d, want 4", len(specs))
	}
	for i, s := range specs {
		if !s.Synthetic {
			t.Errorf("spec[%d] must be synthetic", i)
		}
		if !strings.Contains(s.SubTopic, "财务成本管理") {
			t.Errorf("spec[%d].SubTopic = %q, want topic-derived", i, s.SubTopic)
		}
	}

	// Difficulty cycles through the configured order.
	if specs[0].Difficulty != DifficultyEasy || specs[1].Difficulty != DifficultyMedium || specs[2].Difficulty != DifficultyHard {
		t.Errorf("difficulty cycle broken: %v %v %v", specs[0].Difficulty, specs[1].Difficulty, specs[2].Difficulty)
	}
}

func TestPlannerSynthesizesOnTransientFailure(t *testing.T) {
	mock := llm.NewMockProvider() // empty queue returns ErrProviderUnavailable
	p := NewPlanner(mock, DefaultConfig(), zap.NewNop())

	specs, err := p.Plan(context.Background(), "经济法", 3)
	if err != nil {
		t.Fatalf("transient plan failure must not error: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("len = %d, want 3", len(specs))
	}
}

func TestPlannerPropagatesFatal(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrAuth{Err: errors.New("invalid key")},
	})
	p := NewPlanner(mock, DefaultConfig(), zap.NewNop())

	_, err := p.Plan(context.Background(), "会计", 3)
	var auth *llm.ErrAuth
	if !errors.As(err, &auth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestPlannerZeroCount(t *testing.T) {
	mock := llm.NewMockProvider()
	p := NewPlanner(mock, DefaultConfig(), zap.NewNop())

	specs, err := p.Plan(context.Background(), "会计", 0)
	if err != nil || specs != nil {
		t.Fatalf("want (nil, nil), got (%v, %v)", specs, err)
	}
	if mock.CallCount() != 0 {
		t.Error("zero count must not call the provider")
	}
}
