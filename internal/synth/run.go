package synth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// latencyWindow bounds the moving average used for ETA estimation.
const latencyWindow = 20

// GenerationRun tracks the live state of one generation run.
// Safe for concurrent use by the orchestrator's workers.
type GenerationRun struct {
	ID        string
	Topic     string
	Requested int
	StartedAt time.Time

	mu        sync.Mutex
	completed int
	accepted  int
	rejected  int
	fallback  int
	latencies []time.Duration
}

// NewGenerationRun starts tracking a run of count samples.
func NewGenerationRun(topic string, count int) *GenerationRun {
	return &GenerationRun{
		ID:        uuid.NewString(),
		Topic:     topic,
		Requested: count,
		StartedAt: time.Now(),
	}
}

// RecordOutcome registers one completed sample.
func (r *GenerationRun) RecordOutcome(accepted, fallback bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed++
	if accepted {
		r.accepted++
	} else {
		r.rejected++
	}
	if fallback {
		r.fallback++
	}

	r.latencies = append(r.latencies, latency)
	if len(r.latencies) > latencyWindow {
		r.latencies = r.latencies[len(r.latencies)-latencyWindow:]
	}
}

// RunStats is a point-in-time snapshot of a run.
type RunStats struct {
	RunID     string
	Topic     string
	Requested int
	Completed int
	Accepted  int
	Rejected  int
	Fallback  int
	Elapsed   time.Duration

	// ETASeconds estimates remaining wall time from the moving average
	// of recent per-sample latencies. Zero until the first sample lands.
	ETASeconds float64
}

// Stats snapshots the run. concurrency scales the ETA: n workers finish
// the remaining samples roughly n times faster.
func (r *GenerationRun) Stats(concurrency int) RunStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := RunStats{
		RunID:     r.ID,
		Topic:     r.Topic,
		Requested: r.Requested,
		Completed: r.completed,
		Accepted:  r.accepted,
		Rejected:  r.rejected,
		Fallback:  r.fallback,
		Elapsed:   time.Since(r.StartedAt),
	}

	if len(r.latencies) > 0 && r.completed < r.Requested {
		var sum time.Duration
		for _, d := range r.latencies {
			sum += d
		}
		avg := sum / time.Duration(len(r.latencies))
		if concurrency < 1 {
			concurrency = 1
		}
		remaining := r.Requested - r.completed
		st.ETASeconds = (avg * time.Duration(remaining) / time.Duration(concurrency)).Seconds()
	}

	return st
}
