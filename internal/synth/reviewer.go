package synth

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/examforge/internal/llm"
)

// Reviewer grades drafts.
type Reviewer struct {
	provider llm.Provider
	log      *zap.Logger
	stage    promptedStage
}

// NewReviewer wires a reviewer against the given provider.
func NewReviewer(provider llm.Provider, cfg Config, log *zap.Logger) *Reviewer {
	return &Reviewer{
		provider: provider,
		log:      log,
		stage: promptedStage{
			purpose:     llm.PurposeReview,
			system:      reviewerSystem,
			schema:      reviewSchema(),
			maxTokens:   cfg.ReviewMaxTokens,
			temperature: cfg.ReviewTemperature,
		},
	}
}

type reviewDocument struct {
	Score         json.RawMessage `json:"score"`
	Review        string          `json:"review"`
	RevisionNotes string          `json:"revision_notes"`
}

// Review grades one draft.
//
// A schema-valid response is the happy path. When the model returns
// something else the verdict is salvaged permissively: score out of a
// loose JSON object, else the first in-range number in the text. Only
// when nothing at all can be extracted does the draft get score zero
// with an unparseable verdict. Transport errors propagate.
func (r *Reviewer) Review(ctx context.Context, draft *Draft) (ReviewVerdict, error) {
	resp, err := r.stage.generate(ctx, r.provider, buildReviewerMessage(draft))
	if err != nil {
		if inv, ok := errIsInvalid(err); ok {
			return r.salvage(string(inv.Content), draft), nil
		}
		return ReviewVerdict{}, err
	}

	var doc reviewDocument
	if jsonErr := json.Unmarshal(resp.Content, &doc); jsonErr == nil {
		if score, ok := coerceNumber(doc.Score); ok {
			return ReviewVerdict{
				Score:         ClampScore(score),
				Rationale:     strings.TrimSpace(doc.Review),
				RevisionNotes: strings.TrimSpace(doc.RevisionNotes),
			}, nil
		}
	}

	return r.salvage(resp.Text(), draft), nil
}

// salvage applies the permissive score extraction to raw model text.
func (r *Reviewer) salvage(raw string, draft *Draft) ReviewVerdict {
	if score, ok := ExtractScore(raw); ok {
		return ReviewVerdict{
			Score:     score,
			Rationale: strings.TrimSpace(raw),
		}
	}

	r.log.Warn("reviewer verdict unparseable, scoring zero",
		zap.Int("index", draft.Spec.Index),
		zap.String("sub_topic", draft.Spec.SubTopic))

	return ReviewVerdict{
		Score:       0,
		Rationale:   "unparseable verdict",
		Unparseable: true,
	}
}
