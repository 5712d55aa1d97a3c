package synth

// Config controls the generation pipeline.
type Config struct {
	// MinScore is the reviewer-score acceptance threshold. There is no
	// default on purpose: callers must choose one explicitly.
	MinScore float64

	// Difficulties is the cycle used to assign difficulty tags when the
	// planner doesn't provide one (and by the fallback spec generator).
	Difficulties []Difficulty

	// Notes enables per-sub-topic teaching note generation.
	Notes bool

	// Token budgets per stage.
	PlanMaxTokens   int
	WriteMaxTokens  int
	ReviewMaxTokens int
	NoteMaxTokens   int

	// Temperatures per stage. Planning and reviewing stay near
	// deterministic; writing wants variety across variants.
	PlanTemperature   float64
	WriteTemperature  float64
	ReviewTemperature float64

	// MaxPriorQuestions caps how many recently accepted questions are
	// fed back into the writer prompt for deduplication.
	MaxPriorQuestions int

	// Concurrency is the number of specs processed in parallel.
	// 1 (the default) keeps the loop sequential and fully deterministic.
	Concurrency int

	// BreakerThreshold is the number of consecutive transport-failed
	// samples, with no success ever recorded, after which the run aborts
	// instead of burning the remaining quota on a dead endpoint.
	BreakerThreshold int

	// ProgressEvery emits a progress update every N completed samples.
	ProgressEvery int

	// StartID is the ID assigned to the first sample (supports resuming
	// an appended JSONL dataset).
	StartID int
}

// DefaultConfig returns a Config with recommended defaults.
// MinScore is left at zero and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		Difficulties:      []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard},
		PlanMaxTokens:     2048,
		WriteMaxTokens:    1024,
		ReviewMaxTokens:   512,
		NoteMaxTokens:     256,
		PlanTemperature:   0.2,
		WriteTemperature:  0.7,
		ReviewTemperature: 0.0,
		MaxPriorQuestions: 8,
		Concurrency:       1,
		BreakerThreshold:  5,
		ProgressEvery:     1,
		StartID:           1,
	}
}

// difficultyFor returns the cycle difficulty for position i.
func (c Config) difficultyFor(i int) Difficulty {
	if len(c.Difficulties) == 0 {
		return DifficultyMedium
	}
	return c.Difficulties[i%len(c.Difficulties)]
}
