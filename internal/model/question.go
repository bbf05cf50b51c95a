package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// QuestionType distinguishes objectively gradable questions from free text.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeEssay          QuestionType = "ESSAY"
)

// IsObjective reports whether answers of this type are graded by exact-match
// against the canonical key.
func (t QuestionType) IsObjective() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Question represents a single bank question.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	SubjectID     int             `json:"subject_id"`
	TopicID       *int            `json:"topic_id,omitempty"`
	QuestionText  string          `json:"question_text"`
	QuestionType  QuestionType    `json:"question_type"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer string          `json:"correct_answer"`
	Marks         int             `json:"marks"`
	Verified      bool            `json:"verified"`
}

// QuestionForCandidate is a question with the correct answer stripped,
// as served to an exam-taking device.
type QuestionForCandidate struct {
	ID           uuid.UUID       `json:"id"`
	Position     int             `json:"position"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      json.RawMessage `json:"options"`
	Marks        int             `json:"marks"`
}
