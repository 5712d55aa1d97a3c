package synth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/abhisek/examforge/internal/llm"
)

var reviewedDraft = &Draft{
	Spec:     QuestionSpec{Index: 0, SubTopic: "收入确认"},
	Question: "收入确认的五步法是什么？",
	Answer:   "识别合同、识别履约义务、确定交易价格、分摊交易价格、履约时确认收入。",
}

func newTestReviewer(responses ...llm.MockResponse) (*Reviewer, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	return NewReviewer(mock, DefaultConfig(), zap.NewNop()), mock
}

func TestReviewerHappyPath(t *testing.T) {
	r, _ := newTestReviewer(llm.MockResponse{
		Content: json.RawMessage(`{"score": 8.5, "review": "答案完整准确", "revision_notes": "可补充案例"}`),
	})

	v, err := r.Review(context.Background(), reviewedDraft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Score != 8.5 {
		t.Errorf("score = %v", v.Score)
	}
	if v.Rationale != "答案完整准确" {
		t.Errorf("rationale = %q", v.Rationale)
	}
	if v.RevisionNotes != "可补充案例" {
		t.Errorf("revision notes = %q", v.RevisionNotes)
	}
	if v.Unparseable {
		t.Error("verdict must not be unparseable")
	}
}

func TestReviewerCoercesStringScore(t *testing.T) {
	r, _ := newTestReviewer(llm.MockResponse{
		Content: json.RawMessage(`{"score": "7", "review": "尚可"}`),
	})

	v, err := r.Review(context.Background(), reviewedDraft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Score != 7 {
		t.Errorf("score = %v, want 7", v.Score)
	}
}

func TestReviewerClampsOutOfRange(t *testing.T) {
	r, _ := newTestReviewer(llm.MockResponse{
		Content: json.RawMessage(`{"score": 15, "review": "过誉了"}`),
	})

	v, err := r.Review(context.Background(), reviewedDraft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Score != 10 {
		t.Errorf("score = %v, want 10", v.Score)
	}
}

func TestReviewerSalvagesFreeText(t *testing.T) {
	r, _ := newTestReviewer(llm.MockResponse{
		Content: json.RawMessage(`这道题整体质量不错，评分：7分。`),
	})

	v, err := r.Review(context.Background(), reviewedDraft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Score != 7 {
		t.Errorf("score = %v, want 7", v.Score)
	}
	if v.Unparseable {
		t.Error("a recovered score is not unparseable")
	}
}

func TestReviewerSalvagesInvalidResponseContent(t *testing.T) {
	r, _ := newTestReviewer(llm.MockResponse{
		Err: &llm.ErrInvalidResponse{
			Content: json.RawMessage(`{"评分": "8 分", "点评": "不错"}`),
			Err:     errors.New("schema validation failed"),
		},
	})

	v, err := r.Review(context.Background(), reviewedDraft)
	if err != nil {
		t.Fatalf("invalid response must be salvaged, got error: %v", err)
	}
	if v.Score != 8 {
		t.Errorf("score = %v, want 8", v.Score)
	}
}

func TestReviewerUnparseableScoresZero(t *testing.T) {
	r, _ := newTestReviewer(llm.MockResponse{
		Content: json.RawMessage(`这道题很好，但我拒绝打分。`),
	})

	v, err := r.Review(context.Background(), reviewedDraft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Score != 0 || !v.Unparseable {
		t.Fatalf("verdict = %+v, want zero unparseable", v)
	}
	if v.Rationale != "unparseable verdict" {
		t.Errorf("rationale = %q", v.Rationale)
	}
}

func TestReviewerPropagatesTransportError(t *testing.T) {
	r, _ := newTestReviewer() // empty queue

	_, err := r.Review(context.Background(), reviewedDraft)
	var unavailable *llm.ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestReviewerOfflineVerdict(t *testing.T) {
	r := NewReviewer(llm.NewOfflineProvider(), DefaultConfig(), zap.NewNop())

	v, err := r.Review(context.Background(), reviewedDraft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Score != 5 {
		t.Errorf("offline score = %v, want 5", v.Score)
	}
}
