package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classpoint/cbt-backend/internal/config"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/repository"
)

var ErrAlreadySubmitted = errors.New("exam already submitted")

// ScoringService grades submitted attempts. Grading runs exactly once per
// attempt; the status CAS in the store guarantees at-most-once persistence
// even under concurrent submits.
type ScoringService struct {
	sessionRepo  *repository.ExamSessionRepository
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewScoringService creates a new ScoringService.
func NewScoringService(
	sessionRepo *repository.ExamSessionRepository,
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ScoringService {
	return &ScoringService{
		sessionRepo:  sessionRepo,
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "scoring_service").Logger(),
	}
}

// Grade scores a submission against the attempt's locked question order and
// persists the outcome. The losing side of a concurrent submit gets
// ErrAlreadySubmitted.
func (s *ScoringService) Grade(ctx context.Context, examID uuid.UUID, studentID int, req *model.SubmitExamRequest, hallID *int) (*model.GradedResult, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	session, err := s.sessionRepo.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionMissing
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Status.IsFinal() {
		return nil, ErrAlreadySubmitted
	}

	questions, err := s.questionRepo.GetByIDs(ctx, session.LockedQuestionOrder)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}

	result := ComputeResult(session.ID, session.LockedQuestionOrder, questions, req.Answers, exam.TotalMarks, exam.PassMark)

	submittedAt := time.Now()
	if err := s.sessionRepo.FinalizeGraded(ctx, session.ID, result, submittedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("finalize session: %w", err)
	}

	s.publishSubmitted(ctx, session, result, hallID)

	s.log.Info().
		Str("session_id", session.ID.String()).
		Int("student_id", studentID).
		Int("score", result.Score).
		Bool("passed", result.Passed).
		Msg("Attempt graded")

	return result, nil
}

// ComputeResult scores answers against the locked order. Pure: same inputs
// always yield the same result. Answers for questions outside the locked
// order are ignored; locked questions with no answer score zero.
func ComputeResult(
	sessionID uuid.UUID,
	order []uuid.UUID,
	questions map[uuid.UUID]model.Question,
	answers []model.SubmittedAnswer,
	totalMarks, passMark int,
) *model.GradedResult {
	byQuestion := make(map[uuid.UUID]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Answer
	}

	result := &model.GradedResult{
		SessionID:  sessionID,
		TotalMarks: totalMarks,
		Answers:    make([]model.AnswerRecord, 0, len(order)),
	}

	for i, qid := range order {
		q, ok := questions[qid]
		if !ok {
			continue
		}

		record := model.AnswerRecord{
			SessionID:  sessionID,
			QuestionID: qid,
			Position:   i + 1,
		}

		submitted, answered := byQuestion[qid]
		record.SubmittedText = submitted

		if q.QuestionType.IsObjective() {
			correct := answered && answersMatch(submitted, q.CorrectAnswer)
			record.IsCorrect = &correct
			if correct {
				record.MarksObtained = q.Marks
				result.Score += q.Marks
			} else {
				result.Feedback = append(result.Feedback,
					fmt.Sprintf("Question %d: incorrect", i+1))
			}
		} else {
			// Essay responses are stored ungraded; IsCorrect stays nil
			// until a human marks them.
			result.Feedback = append(result.Feedback,
				fmt.Sprintf("Question %d: awaiting manual grading", i+1))
		}

		result.Answers = append(result.Answers, record)
	}

	if totalMarks > 0 {
		result.Percentage = float64(result.Score) / float64(totalMarks) * 100
	}
	result.Passed = passMark > 0 && result.Score >= passMark
	if passMark == 0 {
		result.Passed = true
	}
	result.Band = GradeBand(result.Percentage)

	return result
}

// answersMatch compares a submitted answer to the canonical key,
// case-insensitively and ignoring surrounding whitespace.
func answersMatch(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}

// GradeBand maps a percentage to its letter band.
func GradeBand(percentage float64) string {
	switch {
	case percentage >= 70:
		return "A"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C"
	case percentage >= 45:
		return "D"
	default:
		return "F"
	}
}

// publishSubmitted pushes a live submission event to the hall monitor
// channel. Best effort.
func (s *ScoringService) publishSubmitted(ctx context.Context, session *model.ExamSession, result *model.GradedResult, hallID *int) {
	if hallID == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"type":        "SESSION_SUBMITTED",
		"session_id":  session.ID,
		"exam_id":     session.ExamID,
		"student_id":  session.StudentID,
		"score":       result.Score,
		"passed":      result.Passed,
		"occurred_at": time.Now(),
	})
	if err != nil {
		return
	}

	if err := s.rdb.Publish(ctx, config.CacheKey.HallMonitorChannel(*hallID), payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Monitor publish failed")
	}
}
