package dataset

// Split carves samples into train and eval sets in record order: the
// leading samples train, the trailing evalRatio fraction evaluates.
// The cut depends only on the inputs, so a given dataset always splits
// the same way.
func Split(samples []Sample, evalRatio float64) (train, eval []Sample) {
	if evalRatio < 0 {
		evalRatio = 0
	}
	if evalRatio > 1 {
		evalRatio = 1
	}

	cut := len(samples) - int(float64(len(samples))*evalRatio)
	return samples[:cut], samples[cut:]
}

// Stats summarizes a dataset for reporting.
type Stats struct {
	Total        int
	Fallback     int
	ByDifficulty map[string]int
	BySubTopic   map[string]int
	MeanScore    float64
	MinScore     float64
	MaxScore     float64
}

// Summarize computes aggregate statistics over samples.
func Summarize(samples []Sample) Stats {
	st := Stats{
		ByDifficulty: make(map[string]int),
		BySubTopic:   make(map[string]int),
	}
	if len(samples) == 0 {
		return st
	}

	st.Total = len(samples)
	st.MinScore = samples[0].Score
	st.MaxScore = samples[0].Score

	var sum float64
	for _, s := range samples {
		st.ByDifficulty[s.Difficulty]++
		st.BySubTopic[s.SubTopic]++
		if s.Fallback {
			st.Fallback++
		}
		sum += s.Score
		if s.Score < st.MinScore {
			st.MinScore = s.Score
		}
		if s.Score > st.MaxScore {
			st.MaxScore = s.Score
		}
	}
	st.MeanScore = sum / float64(len(samples))
	return st
}
