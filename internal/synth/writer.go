package synth

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/examforge/internal/llm"
)

// Writer turns a QuestionSpec into a Draft.
type Writer struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
	stage    promptedStage
	strict   promptedStage
	note     promptedStage

	noteMu sync.Mutex
	notes  map[string]string
}

// NewWriter wires a writer against the given provider.
func NewWriter(provider llm.Provider, cfg Config, log *zap.Logger) *Writer {
	base := promptedStage{
		purpose:     llm.PurposeWrite,
		system:      writerSystem,
		maxTokens:   cfg.WriteMaxTokens,
		temperature: cfg.WriteTemperature,
	}
	strict := base
	strict.system = writerSystemStrict

	return &Writer{
		provider: provider,
		cfg:      cfg,
		log:      log,
		stage:    base,
		strict:   strict,
		note: promptedStage{
			purpose:     llm.PurposeNote,
			system:      noteSystem,
			maxTokens:   cfg.NoteMaxTokens,
			temperature: cfg.WriteTemperature,
		},
		notes: make(map[string]string),
	}
}

// Write produces one draft for the spec. prior lists recently accepted
// questions fed back for deduplication.
//
// Unparseable output gets one strict-format retry; if that also cannot
// be split the draft is returned marked Invalid rather than erroring,
// so one bad sample never stops a run. Transport errors propagate.
func (w *Writer) Write(ctx context.Context, topic string, spec QuestionSpec, prior []string) (*Draft, error) {
	msg := buildWriterMessage(topic, spec, prior, w.cfg.MaxPriorQuestions)

	resp, err := w.stage.generate(ctx, w.provider, msg)
	if err != nil {
		return nil, err
	}

	if resp.Model == llm.OfflineModelID {
		return w.fallbackDraft(spec, resp), nil
	}

	raw := responseText(resp)
	if pair, ok := SplitQA(raw); ok && pair.Confident {
		return draftFrom(spec, pair, raw), nil
	}

	w.log.Debug("draft unparseable, retrying with strict format",
		zap.Int("index", spec.Index),
		zap.String("sub_topic", spec.SubTopic))

	resp, err = w.strict.generate(ctx, w.provider, msg)
	if err != nil {
		return nil, err
	}
	if resp.Model == llm.OfflineModelID {
		return w.fallbackDraft(spec, resp), nil
	}

	raw = responseText(resp)
	if pair, ok := SplitQA(raw); ok {
		return draftFrom(spec, pair, raw), nil
	}

	return &Draft{
		Spec:          spec,
		RawOutput:     raw,
		Invalid:       true,
		InvalidReason: "output could not be split into question and answer",
	}, nil
}

// Note generates a short teaching note for the sub-topic. Notes are
// cached per sub-topic, so variant questions on the same node share one
// model call. Failures are swallowed and not cached: notes are garnish,
// never worth failing a sample over.
func (w *Writer) Note(ctx context.Context, topic, subTopic string) string {
	w.noteMu.Lock()
	if note, ok := w.notes[subTopic]; ok {
		w.noteMu.Unlock()
		return note
	}
	w.noteMu.Unlock()

	resp, err := w.note.generate(ctx, w.provider, buildNoteMessage(topic, subTopic))
	if err != nil {
		w.log.Debug("teaching note generation failed",
			zap.String("sub_topic", subTopic),
			zap.Error(err))
		return ""
	}

	note := strings.TrimSpace(responseText(resp))
	if note != "" {
		w.noteMu.Lock()
		w.notes[subTopic] = note
		w.noteMu.Unlock()
	}
	return note
}

func draftFrom(spec QuestionSpec, pair QAPair, raw string) *Draft {
	return &Draft{
		Spec:      spec,
		Question:  pair.Question,
		Answer:    pair.Answer,
		RawOutput: raw,
	}
}

// fallbackDraft wraps offline placeholder content. The placeholder is
// not a Q/A pair, so both fields carry it verbatim and the sample is
// tagged for downstream filtering.
func (w *Writer) fallbackDraft(spec QuestionSpec, resp *llm.Response) *Draft {
	content := responseText(resp)
	return &Draft{
		Spec:      spec,
		Question:  content,
		Answer:    content,
		RawOutput: content,
		Fallback:  true,
	}
}

// responseText unwraps JSON-string content, otherwise returns it raw.
func responseText(resp *llm.Response) string {
	var s string
	if err := json.Unmarshal(resp.Content, &s); err == nil {
		return s
	}
	return resp.Text()
}
