package synth

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// answerLabels are tried in order against every line of writer output.
// Chinese labels first: that is what the prompts ask for.
var answerLabels = []string{"答：", "答:", "答案：", "答案:", "Answer:", "A:"}

// questionPrefixes are stripped from the question half when present.
var questionPrefixes = []string{"问：", "问:", "问题：", "问题:", "Question:", "Q:"}

// QAPair is the result of splitting writer output.
type QAPair struct {
	Question string
	Answer   string

	// Confident reports that an explicit answer label was found. When
	// false the split was a desperation heuristic and the caller should
	// retry with a stricter prompt.
	Confident bool
}

// SplitQA separates writer output into a question and an answer.
//
// The primary strategy scans for the first line starting with an answer
// label: everything before is the question, everything from the label on
// (label stripped) is the answer. When no label exists, a two-paragraph
// response falls back to first-paragraph/rest with Confident=false.
// Single-block output with no label cannot be split at all.
func SplitQA(raw string) (QAPair, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return QAPair{}, false
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, label := range answerLabels {
			if !strings.HasPrefix(trimmed, label) {
				continue
			}
			q := strings.TrimSpace(strings.Join(lines[:i], "\n"))
			a := strings.TrimSpace(strings.TrimPrefix(trimmed, label))
			if rest := strings.Join(lines[i+1:], "\n"); strings.TrimSpace(rest) != "" {
				a = strings.TrimSpace(a + "\n" + rest)
			}
			q = stripQuestionPrefix(q)
			if q == "" || a == "" {
				return QAPair{}, false
			}
			return QAPair{Question: q, Answer: a, Confident: true}, true
		}
	}

	// No label anywhere. Try paragraph split.
	paras := splitParagraphs(text)
	if len(paras) >= 2 {
		q := stripQuestionPrefix(paras[0])
		a := strings.TrimSpace(strings.Join(paras[1:], "\n\n"))
		if q != "" && a != "" {
			return QAPair{Question: q, Answer: a, Confident: false}, true
		}
	}

	return QAPair{}, false
}

func stripQuestionPrefix(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range questionPrefixes {
		if strings.HasPrefix(s, p) {
			return strings.TrimSpace(strings.TrimPrefix(s, p))
		}
	}
	return s
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// scorePattern matches the first standalone decimal number in free text.
var scorePattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ExtractScore pulls a reviewer score out of arbitrary model output.
//
// It first tries JSON: an object with a "score" member that is a number
// or a numeric string. Failing that it scans the text for the first
// number that lies within [0, 10] before clamping. ok=false means no
// score could be recovered and the verdict is unparseable.
func ExtractScore(raw string) (float64, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		if v, ok := obj["score"]; ok {
			if s, ok := coerceNumber(v); ok {
				return ClampScore(s), true
			}
		}
	}

	for _, m := range scorePattern.FindAllString(text, -1) {
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		if n >= 0 && n <= 10 {
			return n, true
		}
	}

	return 0, false
}

func coerceNumber(raw json.RawMessage) (float64, bool) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ClampScore forces a score into [0, 10].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 10 {
		return 10
	}
	return s
}
