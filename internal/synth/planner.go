package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/examforge/internal/llm"
)

// Planner expands an exam subject into question specs.
type Planner struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
	stage    promptedStage
}

// NewPlanner wires a planner against the given provider.
func NewPlanner(provider llm.Provider, cfg Config, log *zap.Logger) *Planner {
	return &Planner{
		provider: provider,
		cfg:      cfg,
		log:      log,
		stage: promptedStage{
			purpose:     llm.PurposePlan,
			system:      plannerSystem,
			schema:      planSchema(),
			maxTokens:   cfg.PlanMaxTokens,
			temperature: cfg.PlanTemperature,
		},
	}
}

type planItem struct {
	SubTopic   string `json:"sub_topic"`
	Difficulty string `json:"difficulty"`
}

type planDocument struct {
	Items []planItem `json:"items"`
}

// Plan returns exactly count specs for the topic.
//
// One model call is made regardless of count. A short plan is padded by
// cycling the planned sub-topics with incremented variant numbers; a
// long plan is truncated. When the call fails transiently or the output
// cannot be parsed, the entire plan is synthesized from the topic itself
// so generation can proceed. Fatal errors propagate.
func (p *Planner) Plan(ctx context.Context, topic string, count int) ([]QuestionSpec, error) {
	if count <= 0 {
		return nil, nil
	}

	resp, err := p.stage.generate(ctx, p.provider, buildPlannerMessage(topic, count))
	if err != nil {
		if llm.IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		p.log.Warn("plan call failed, synthesizing specs",
			zap.String("topic", topic),
			zap.Error(err))
		return p.syntheticSpecs(topic, count), nil
	}

	items := p.parsePlan(resp.Content)
	if len(items) == 0 {
		p.log.Warn("plan output unusable, synthesizing specs",
			zap.String("topic", topic))
		return p.syntheticSpecs(topic, count), nil
	}

	return p.expand(items, count), nil
}

// parsePlan tolerates both the schema shape and a bare array.
func (p *Planner) parsePlan(content json.RawMessage) []planItem {
	var doc planDocument
	if err := json.Unmarshal(content, &doc); err == nil && len(doc.Items) > 0 {
		return usableItems(doc.Items)
	}

	var bare []planItem
	if err := json.Unmarshal(content, &bare); err == nil {
		return usableItems(bare)
	}

	return nil
}

func usableItems(items []planItem) []planItem {
	out := items[:0]
	for _, it := range items {
		if it.SubTopic != "" {
			out = append(out, it)
		}
	}
	return out
}

// expand pads or truncates the planned items to exactly count specs.
// Padded specs cycle the planned sub-topics and are tagged synthetic.
func (p *Planner) expand(items []planItem, count int) []QuestionSpec {
	specs := make([]QuestionSpec, 0, count)
	for i := 0; i < count; i++ {
		it := items[i%len(items)]
		diff, ok := ParseDifficulty(it.Difficulty)
		if !ok {
			diff = p.cfg.difficultyFor(i)
		}
		specs = append(specs, QuestionSpec{
			Index:      i,
			SubTopic:   it.SubTopic,
			Difficulty: diff,
			Variant:    i / len(items),
			Synthetic:  i >= len(items),
		})
	}
	return specs
}

// syntheticSpecs builds a whole plan from nothing but the topic name.
func (p *Planner) syntheticSpecs(topic string, count int) []QuestionSpec {
	specs := make([]QuestionSpec, 0, count)
	for i := 0; i < count; i++ {
		specs = append(specs, QuestionSpec{
			Index:      i,
			SubTopic:   fmt.Sprintf("%s 综合考点 %d", topic, i+1),
			Difficulty: p.cfg.difficultyFor(i),
			Variant:    0,
			Synthetic:  true,
		})
	}
	return specs
}

// errIsInvalid reports whether err carries schema-invalid model content.
func errIsInvalid(err error) (*llm.ErrInvalidResponse, bool) {
	var inv *llm.ErrInvalidResponse
	if errors.As(err, &inv) {
		return inv, true
	}
	return nil, false
}
