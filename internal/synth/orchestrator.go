package synth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/examforge/internal/dataset"
	"github.com/abhisek/examforge/internal/llm"
)

// Sink receives accepted samples, strictly in spec-index order.
type Sink interface {
	Append(s dataset.Sample) error
}

// ProgressFunc receives run snapshots as samples complete.
type ProgressFunc func(RunStats)

// Orchestrator drives the plan/write/review/gate pipeline for a run.
type Orchestrator struct {
	planner  *Planner
	writer   *Writer
	reviewer *Reviewer
	cfg      Config
	sink     Sink
	log      *zap.Logger
	progress ProgressFunc
}

// NewOrchestrator assembles the pipeline on one provider. progress may
// be nil.
func NewOrchestrator(provider llm.Provider, cfg Config, sink Sink, log *zap.Logger, progress ProgressFunc) *Orchestrator {
	return &Orchestrator{
		planner:  NewPlanner(provider, cfg, log),
		writer:   NewWriter(provider, cfg, log),
		reviewer: NewReviewer(provider, cfg, log),
		cfg:      cfg,
		sink:     sink,
		log:      log,
		progress: progress,
	}
}

// workOutcome is one worker's result for one spec.
type workOutcome struct {
	index     int
	sample    *dataset.Sample
	reason    string
	fallback  bool
	latency   time.Duration
	apiOK     bool
	failErr   error
	fatalErr  error
	cancelled bool
}

// Run generates count samples on topic.
//
// Samples reach the sink in spec-index order regardless of worker
// scheduling. Cancellation stops new work and flushes everything already
// accepted; the returned stats then describe a partial run with a nil
// error. Fatal failures (bad credentials, dead endpoint via the circuit
// breaker, sink write failure) abort and are returned alongside the
// partial stats.
func (o *Orchestrator) Run(ctx context.Context, topic string, count int) (RunStats, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return RunStats{}, &ErrConfig{Msg: "topic must not be empty"}
	}
	if count <= 0 {
		return RunStats{}, &ErrConfig{Msg: "question count must be positive"}
	}
	if o.cfg.MinScore < 0 || o.cfg.MinScore > 10 {
		return RunStats{}, &ErrConfig{Msg: "min score must be within [0, 10]"}
	}

	run := NewGenerationRun(topic, count)

	specs, err := o.planner.Plan(ctx, topic, count)
	if err != nil {
		return run.Stats(o.cfg.Concurrency), err
	}

	workers := o.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan QuestionSpec)
	results := make(chan workOutcome, workers)
	prior := &priorQuestions{}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for spec := range jobs {
				results <- o.processSpec(ctx, topic, spec, prior)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, spec := range specs {
			select {
			case jobs <- spec:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return o.collect(ctx, cancel, run, results)
}

// collect drains worker outcomes, flushing samples in index order and
// enforcing the circuit breaker.
func (o *Orchestrator) collect(ctx context.Context, cancel context.CancelFunc, run *GenerationRun, results <-chan workOutcome) (RunStats, error) {
	pending := make(map[int]workOutcome)
	next := 0

	var runErr error
	consecutiveFails := 0
	everSucceeded := false

	fail := func(err error) {
		if runErr == nil {
			runErr = err
		}
		cancel()
	}

	flush := func(out workOutcome) {
		run.RecordOutcome(out.sample != nil, out.fallback, out.latency)

		switch {
		case out.sample != nil:
			if runErr == nil {
				if err := o.sink.Append(*out.sample); err != nil {
					fail(&ErrIO{Op: "append", Err: err})
				}
			}
			if out.fallback {
				o.log.Info("accepted fallback sample", zap.Int("id", out.sample.ID))
			}
		case out.reason != "":
			// Warn level: rejection reasons must show up on a default run.
			o.log.Warn("sample rejected",
				zap.Int("index", out.index),
				zap.String("reason", out.reason))
		}

		if o.progress != nil && o.cfg.ProgressEvery > 0 {
			st := run.Stats(o.cfg.Concurrency)
			if st.Completed%o.cfg.ProgressEvery == 0 || st.Completed == st.Requested {
				o.progress(st)
			}
		}
	}

	for out := range results {
		if out.cancelled {
			continue
		}
		if out.fatalErr != nil {
			o.log.Error("unrecoverable provider failure, aborting run", zap.Error(out.fatalErr))
			fail(out.fatalErr)
			continue
		}

		if out.failErr != nil {
			out.reason = "transport_failure: " + out.failErr.Error()
			if !everSucceeded {
				consecutiveFails++
				if consecutiveFails >= o.cfg.BreakerThreshold && runErr == nil {
					o.log.Error("circuit breaker tripped",
						zap.Int("failures", consecutiveFails),
						zap.Error(out.failErr))
					fail(&ErrCircuitOpen{Failures: consecutiveFails, Last: out.failErr})
				}
			}
		} else if out.apiOK {
			everSucceeded = true
			consecutiveFails = 0
		}

		pending[out.index] = out
		for {
			buffered, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			flush(buffered)
			next++
		}
	}

	// Cancellation or abort can leave completed outcomes stranded behind
	// an index gap. Flush them in ascending order so nothing accepted is
	// lost.
	if len(pending) > 0 {
		indexes := make([]int, 0, len(pending))
		for i := range pending {
			indexes = append(indexes, i)
		}
		sort.Ints(indexes)
		for _, i := range indexes {
			flush(pending[i])
		}
	}

	if runErr == nil && ctx.Err() != nil {
		o.log.Warn("run cancelled, accepted samples flushed")
	}

	return run.Stats(o.cfg.Concurrency), runErr
}

// processSpec runs write, review and gate for one spec.
func (o *Orchestrator) processSpec(ctx context.Context, topic string, spec QuestionSpec, prior *priorQuestions) workOutcome {
	start := time.Now()

	draft, err := o.writer.Write(ctx, topic, spec, prior.snapshot())
	if err != nil {
		return classifyFailure(ctx, spec.Index, err, time.Since(start))
	}

	var verdict ReviewVerdict
	if !draft.Invalid {
		verdict, err = o.reviewer.Review(ctx, draft)
		if err != nil {
			return classifyFailure(ctx, spec.Index, err, time.Since(start))
		}
	}

	out := workOutcome{
		index:    spec.Index,
		fallback: draft.Fallback,
		latency:  time.Since(start),
		apiOK:    !draft.Fallback,
	}

	decision := Evaluate(draft, verdict, o.cfg.MinScore)
	if !decision.Keep {
		out.reason = decision.Reason
		return out
	}

	if !draft.Fallback {
		prior.add(draft.Question)
		if o.cfg.Notes {
			draft.TeachingNote = o.writer.Note(ctx, topic, spec.SubTopic)
		}
	}

	out.sample = &dataset.Sample{
		ID:           o.cfg.StartID + spec.Index,
		Topic:        topic,
		SubTopic:     spec.SubTopic,
		Difficulty:   string(spec.Difficulty),
		Question:     draft.Question,
		Answer:       draft.Answer,
		Score:        verdict.Score,
		Review:       verdict.Rationale,
		TeachingNote: draft.TeachingNote,
		Fallback:     draft.Fallback,
		GeneratedAt:  time.Now().UTC(),
	}
	out.latency = time.Since(start)
	return out
}

func classifyFailure(ctx context.Context, index int, err error, latency time.Duration) workOutcome {
	if ctx.Err() != nil {
		return workOutcome{index: index, cancelled: true}
	}
	if llm.IsFatal(err) {
		return workOutcome{index: index, fatalErr: err, latency: latency}
	}
	return workOutcome{index: index, failErr: err, latency: latency}
}

// priorQuestions is the shared dedup context fed to the writer prompt.
type priorQuestions struct {
	mu sync.Mutex
	qs []string
}

func (p *priorQuestions) add(q string) {
	p.mu.Lock()
	p.qs = append(p.qs, q)
	p.mu.Unlock()
}

func (p *priorQuestions) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.qs))
	copy(out, p.qs)
	return out
}
