package synth

import "github.com/abhisek/examforge/internal/llm"

// planSchema constrains the planner's output to a list of sub-topics
// with difficulty tags.
func planSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "question-plan",
		Description: "Exam sub-topics with difficulty tags for question generation",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"items": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"sub_topic": map[string]any{
								"type":        "string",
								"description": "具体考点名称",
							},
							"difficulty": map[string]any{
								"type": "string",
								"enum": []any{"easy", "medium", "hard"},
							},
						},
						"required":             []any{"sub_topic", "difficulty"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"items"},
			"additionalProperties": false,
		},
	}
}

// reviewSchema constrains the reviewer's verdict. revision_notes is
// optional on purpose: most verdicts don't need it.
func reviewSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "review-verdict",
		Description: "Score and critique for a generated question/answer pair",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score": map[string]any{
					"type":    "number",
					"minimum": 0,
					"maximum": 10,
				},
				"review": map[string]any{
					"type": "string",
				},
				"revision_notes": map[string]any{
					"type": "string",
				},
			},
			"required":             []any{"score", "review"},
			"additionalProperties": false,
		},
	}
}
