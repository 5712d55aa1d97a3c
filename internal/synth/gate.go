package synth

import "fmt"

// Decision is the quality gate's outcome for one draft.
type Decision struct {
	Keep   bool
	Reason string
}

// Evaluate decides whether a reviewed draft enters the dataset.
// Pure: same inputs, same decision, no provider calls.
func Evaluate(draft *Draft, verdict ReviewVerdict, minScore float64) Decision {
	if draft.Invalid {
		return Decision{Reason: "invalid_draft"}
	}
	if verdict.Score < minScore {
		return Decision{Reason: fmt.Sprintf("low_score (%.1f < %.1f)", verdict.Score, minScore)}
	}
	return Decision{Keep: true}
}
