package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// Exam represents one exam sitting's configuration.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	SubjectID       int        `json:"subject_id"`
	DurationMinutes int        `json:"duration_minutes"`
	TotalMarks      int        `json:"total_marks"`
	PassMark        int        `json:"pass_mark"`
	// RandomizeQuestions controls whether assembly samples a per-student
	// subset. When false the full assigned question set is served in its
	// configured order.
	RandomizeQuestions     bool       `json:"randomize_questions"`
	QuestionSelectionCount int        `json:"question_selection_count"`
	Status                 ExamStatus `json:"status"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// ExamPaper is the payload served to an exam-taking device: the locked
// question sequence with the correct answers stripped.
type ExamPaper struct {
	ExamID          uuid.UUID              `json:"exam_id"`
	Title           string                 `json:"title"`
	DurationMinutes int                    `json:"duration_minutes"`
	Questions       []QuestionForCandidate `json:"questions"`
	// SelectionReduced is set when the candidate pool held fewer questions
	// than the exam requested. Partial papers are valid, not an error.
	SelectionReduced bool `json:"selection_reduced,omitempty"`
}
