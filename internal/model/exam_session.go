package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam attempt states. Transitions are strictly
// forward-only: NOT_STARTED → IN_PROGRESS → SUBMITTED → GRADED.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "NOT_STARTED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
	SessionStatusGraded     SessionStatus = "GRADED"
)

var statusRank = map[SessionStatus]int{
	SessionStatusNotStarted: 0,
	SessionStatusInProgress: 1,
	SessionStatusSubmitted:  2,
	SessionStatusGraded:     3,
}

// CanAdvanceTo reports whether moving from s to next is a legal forward
// transition. No transition ever returns to an earlier state.
func (s SessionStatus) CanAdvanceTo(next SessionStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to == from+1
}

// IsFinal reports whether the attempt has already been handed in.
func (s SessionStatus) IsFinal() bool {
	return s == SessionStatusSubmitted || s == SessionStatusGraded
}

// ExamSession represents one student's attempt at one exam. An attempt is
// unique per (student, exam) and is never re-opened.
type ExamSession struct {
	ID        uuid.UUID     `json:"id"`
	ExamID    uuid.UUID     `json:"exam_id"`
	StudentID int           `json:"student_id"`
	Status    SessionStatus `json:"status"`
	// LockedQuestionOrder is written once at assembly and never recomputed.
	// It is the sole source of which questions, in what order, this attempt
	// sees and is scored against. Every session carries one: non-randomized
	// exams lock the full candidate pool in its natural order.
	LockedQuestionOrder []uuid.UUID `json:"locked_question_order,omitempty"`
	StartedAt           *time.Time  `json:"started_at,omitempty"`
	SubmittedAt         *time.Time  `json:"submitted_at,omitempty"`
	Score               *int        `json:"score,omitempty"`
	Percentage          *float64    `json:"percentage,omitempty"`
	Passed              *bool       `json:"passed,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
}

// ExamSessionState is the reload view for an exam-taking device: where the
// attempt stands and how much wall-clock time remains.
type ExamSessionState struct {
	ExamID               uuid.UUID     `json:"exam_id"`
	StudentID            int           `json:"student_id"`
	Status               SessionStatus `json:"status"`
	TimeRemainingSeconds float64       `json:"time_remaining_seconds"`
}

// SubmittedAnswer is one (question, response) pair in a submission.
type SubmittedAnswer struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Answer     string    `json:"answer"`
}

// SubmitExamRequest is the payload handing in an attempt for grading.
type SubmitExamRequest struct {
	Answers []SubmittedAnswer `json:"answers" binding:"dive"`
}
