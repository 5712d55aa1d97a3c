package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/examforge/internal/llm"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendAndQueryEvents(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	events := []llm.RequestEvent{
		{Provider: "deepseek", Model: "deepseek-chat", Purpose: llm.PurposeWrite,
			InputTokens: 120, OutputTokens: 300, LatencyMs: 850, Success: true,
			RequestBody: "[user]\n出一道题", ResponseBody: "问：...答：..."},
		{Provider: "deepseek", Model: "deepseek-chat", Purpose: llm.PurposeReview,
			InputTokens: 200, OutputTokens: 50, LatencyMs: 400, Success: true},
		{Provider: "deepseek", Model: "deepseek-chat", Purpose: llm.PurposeWrite,
			LatencyMs: 60000, Success: false, ErrorMessage: "timeout"},
	}
	for _, ev := range events {
		if err := l.AppendRequest(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := l.QueryEvents(ctx, "", 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// Newest first.
	if got[0].Success || got[0].ErrorMessage != "timeout" {
		t.Errorf("got[0] = %+v", got[0])
	}

	writes, err := l.QueryEvents(ctx, llm.PurposeWrite, 10)
	if err != nil {
		t.Fatalf("query filtered: %v", err)
	}
	if len(writes) != 2 {
		t.Fatalf("filtered len = %d, want 2", len(writes))
	}

	// Bodies only come back from GetEvent.
	full, err := l.GetEvent(ctx, writes[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if full.RequestBody == "" || full.ResponseBody == "" {
		t.Error("full event must include bodies")
	}
}

func TestGetEventNotFound(t *testing.T) {
	l := openTestLedger(t)
	if _, err := l.GetEvent(context.Background(), 999); err == nil {
		t.Fatal("expected error for missing event")
	}
}

func TestUsageAggregation(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.AppendRequest(ctx, llm.RequestEvent{
			Provider: "deepseek", Model: "deepseek-chat", Purpose: llm.PurposeWrite,
			InputTokens: 100, OutputTokens: 200, LatencyMs: 500, Success: true,
		})
	}
	l.AppendRequest(ctx, llm.RequestEvent{
		Provider: "deepseek", Model: "deepseek-chat", Purpose: llm.PurposeReview,
		LatencyMs: 100, Success: false,
	})

	byPurpose, err := l.UsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("groups = %d, want 2", len(byPurpose))
	}
	if byPurpose[0].Key != llm.PurposeWrite || byPurpose[0].Requests != 3 {
		t.Errorf("top group = %+v", byPurpose[0])
	}
	if byPurpose[0].InputTokens != 300 || byPurpose[0].OutputTokens != 600 {
		t.Errorf("token sums = %+v", byPurpose[0])
	}
	if byPurpose[1].Failures != 1 {
		t.Errorf("failures = %d, want 1", byPurpose[1].Failures)
	}

	byModel, err := l.UsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 1 || byModel[0].Requests != 4 {
		t.Errorf("by model = %+v", byModel)
	}
}

func TestAppendAndQueryRuns(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	runs := []Run{
		{ID: "run-1", Topic: "会计", Requested: 200, Completed: 200, Accepted: 163,
			Rejected: 37, MinScore: 7, StartedAt: time.Now().Add(-time.Hour),
			DurationMs: 540000, OutputPath: "data/generated/会计_teacher_200.jsonl",
			Status: "completed"},
		{ID: "run-2", Topic: "税法", Requested: 50, Completed: 12, Accepted: 10,
			Rejected: 2, MinScore: 7, StartedAt: time.Now(),
			DurationMs: 30000, OutputPath: "out.jsonl",
			Status: "aborted", Error: "circuit breaker tripped"},
	}
	for _, r := range runs {
		if err := l.AppendRun(ctx, r); err != nil {
			t.Fatalf("append run: %v", err)
		}
	}

	got, err := l.QueryRuns(ctx, 10)
	if err != nil {
		t.Fatalf("query runs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "run-2" || got[0].Status != "aborted" {
		t.Errorf("newest run = %+v", got[0])
	}
	if got[1].Accepted != 163 {
		t.Errorf("run-1 accepted = %d", got[1].Accepted)
	}
}
