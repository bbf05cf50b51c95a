package model

import (
	"github.com/google/uuid"
)

// AnswerRecord is one student response to one question within an attempt,
// written exactly once at submission. Unique per (session, question).
type AnswerRecord struct {
	ID            uuid.UUID `json:"id"`
	SessionID     uuid.UUID `json:"session_id"`
	QuestionID    uuid.UUID `json:"question_id"`
	Position      int       `json:"position"` // 1-based index into the locked order
	SubmittedText string    `json:"submitted_text"`
	IsCorrect     *bool     `json:"is_correct,omitempty"`
	MarksObtained int       `json:"marks_obtained"`
}

// GradedResult is the outcome handed back after grading an attempt. Band and
// Feedback are presentation conveniences; the stored invariant is the
// score/percentage/passed triple on the session row.
type GradedResult struct {
	SessionID  uuid.UUID      `json:"session_id"`
	Score      int            `json:"score"`
	TotalMarks int            `json:"total_marks"`
	Percentage float64        `json:"percentage"`
	Passed     bool           `json:"passed"`
	Band       string         `json:"band"`
	Feedback   []string       `json:"feedback"`
	Answers    []AnswerRecord `json:"answers"`
}
