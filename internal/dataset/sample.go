// Package dataset defines the persisted sample shape and the readers
// and writers for the two supported serializations, a single JSON array
// and line-delimited JSON.
package dataset

import "time"

// Sample is one accepted question/answer record as it appears on disk.
type Sample struct {
	ID         int    `json:"id"`
	Topic      string `json:"topic"`
	SubTopic   string `json:"sub_topic"`
	Difficulty string `json:"difficulty"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`

	// Score is the reviewer score the sample was accepted with.
	Score float64 `json:"score"`

	// Review is the reviewer's free-text assessment, when available.
	Review string `json:"review,omitempty"`

	// TeachingNote is an optional short explanation of the sub-topic.
	TeachingNote string `json:"teaching_note,omitempty"`

	// Fallback marks placeholder content produced without API access.
	Fallback bool `json:"fallback,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}
