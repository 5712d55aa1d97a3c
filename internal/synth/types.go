package synth

// Difficulty tags a question spec with its intended exam difficulty.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes a model-reported difficulty string.
// Unknown values report ok=false so the caller can substitute the
// configured cycle.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), true
	}
	return "", false
}

// QuestionSpec is one planned question: a sub-topic of the exam subject
// plus a difficulty tag. Produced by the Planner, consumed by the Writer,
// never persisted.
type QuestionSpec struct {
	// Index is the spec's position in the plan, 0..count-1. Output
	// ordering and sample IDs derive from it.
	Index int

	// SubTopic is the knowledge point the question should cover.
	SubTopic string

	Difficulty Difficulty

	// Variant numbers repeat passes over the same sub-topic when the
	// requested count exceeds the number of distinct sub-topics.
	Variant int

	// Synthetic marks specs padded in by the fallback generator when the
	// planner response was short or unparseable. Tagged so downstream
	// inspection can tell planned sub-topics from cycled filler.
	Synthetic bool
}

// Draft is a full question/answer candidate produced by the Writer.
// It is immutable once reviewed.
type Draft struct {
	Spec     QuestionSpec
	Question string
	Answer   string

	// RawOutput preserves the model text the Q/A pair was parsed from.
	RawOutput string

	// TeachingNote is an optional short explanation of the sub-topic,
	// generated only when notes are enabled.
	TeachingNote string

	// Invalid marks a draft whose output could not be parsed even after
	// the strict-format retry. The gate rejects it without spending a
	// reviewer call.
	Invalid       bool
	InvalidReason string

	// Fallback marks placeholder output from the offline provider.
	Fallback bool
}

// ReviewVerdict is the Reviewer's judgment of one Draft.
type ReviewVerdict struct {
	// Score is clamped to [0, 10].
	Score float64

	// Rationale is the reviewer's free-text assessment.
	Rationale string

	// RevisionNotes carries optional improvement suggestions.
	RevisionNotes string

	// Unparseable reports that no score could be extracted and the
	// zero score was assigned by policy rather than judgment.
	Unparseable bool
}
