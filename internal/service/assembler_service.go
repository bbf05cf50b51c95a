package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/repository"
)

var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamNotPublished = errors.New("exam is not published")
	ErrSessionMissing   = errors.New("exam session not found")
	ErrEmptyQuestionSet = errors.New("exam has no eligible questions")
)

// AssemblerService builds per-student exam papers. The question order is
// locked once at assembly and the same attempt always replays it.
type AssemblerService struct {
	sessionRepo  *repository.ExamSessionRepository
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	log          zerolog.Logger
}

// NewAssemblerService creates a new AssemblerService.
func NewAssemblerService(
	sessionRepo *repository.ExamSessionRepository,
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	log zerolog.Logger,
) *AssemblerService {
	return &AssemblerService{
		sessionRepo:  sessionRepo,
		examRepo:     examRepo,
		questionRepo: questionRepo,
		log:          log.With().Str("component", "assembler_service").Logger(),
	}
}

// AssembleResult reports what Assemble produced. Selected < Requested means
// the eligible pool was smaller than the exam asked for.
type AssembleResult struct {
	Session   *model.ExamSession
	Requested int
	Selected  int
}

// Assemble returns the student's attempt for an exam, creating and locking
// it on first call. Repeat calls return the existing attempt untouched, so
// a reconnecting device always sees the same paper.
func (s *AssemblerService) Assemble(ctx context.Context, examID uuid.UUID, studentID int) (*AssembleResult, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}

	if existing, err := s.sessionRepo.GetByExamAndStudent(ctx, examID, studentID); err == nil {
		return &AssembleResult{
			Session:   existing,
			Requested: len(existing.LockedQuestionOrder),
			Selected:  len(existing.LockedQuestionOrder),
		}, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get session: %w", err)
	}

	pool, err := s.candidatePool(ctx, exam)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrEmptyQuestionSet
	}

	requested := len(pool)
	order := pool
	if exam.RandomizeQuestions && exam.QuestionSelectionCount > 0 {
		requested = exam.QuestionSelectionCount
		order = SampleQuestionIDs(pool, exam.QuestionSelectionCount)
	}

	session := &model.ExamSession{
		ExamID:              examID,
		StudentID:           studentID,
		Status:              model.SessionStatusNotStarted,
		LockedQuestionOrder: order,
	}

	err = s.sessionRepo.Create(ctx, session)
	if errors.Is(err, pgx.ErrNoRows) {
		// Concurrent assembly from another device won the insert. Adopt
		// the winner's locked order; never hand out two orders.
		winner, fetchErr := s.sessionRepo.GetByExamAndStudent(ctx, examID, studentID)
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch winning session: %w", fetchErr)
		}
		return &AssembleResult{
			Session:   winner,
			Requested: len(winner.LockedQuestionOrder),
			Selected:  len(winner.LockedQuestionOrder),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Int("questions", len(order)).
		Msg("Exam session assembled")

	return &AssembleResult{Session: session, Requested: requested, Selected: len(order)}, nil
}

// candidatePool resolves the eligible question IDs for an exam, in priority
// order: explicitly assigned questions, then verified questions under the
// exam's assigned topics, then the whole subject bank.
func (s *AssemblerService) candidatePool(ctx context.Context, exam *model.Exam) ([]uuid.UUID, error) {
	assigned, err := s.examRepo.ListAssignedQuestionIDs(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list assigned questions: %w", err)
	}
	if len(assigned) > 0 {
		return assigned, nil
	}

	topicIDs, err := s.examRepo.ListAssignedTopicIDs(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list assigned topics: %w", err)
	}
	if len(topicIDs) > 0 {
		ids, err := s.questionRepo.ListVerifiedIDsByTopics(ctx, topicIDs)
		if err != nil {
			return nil, fmt.Errorf("list topic questions: %w", err)
		}
		if len(ids) > 0 {
			return ids, nil
		}
	}

	ids, err := s.questionRepo.ListIDsBySubject(ctx, exam.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("list subject questions: %w", err)
	}
	return ids, nil
}

// SampleQuestionIDs draws up to count IDs from pool uniformly without
// replacement, preserving no particular order. When the pool is smaller
// than count the whole pool is returned shuffled.
func SampleQuestionIDs(pool []uuid.UUID, count int) []uuid.UUID {
	out := make([]uuid.UUID, len(pool))
	copy(out, pool)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	if count < len(out) {
		out = out[:count]
	}
	return out
}

// BuildPaper materializes the locked order into a candidate-facing paper.
// The first paper fetch starts the attempt clock.
func (s *AssemblerService) BuildPaper(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamPaper, error) {
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

	paper := &model.ExamPaper{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		Questions:       make([]model.QuestionForCandidate, 0, len(session.LockedQuestionOrder)),
	}
	for i, qid := range session.LockedQuestionOrder {
		q, ok := questions[qid]
		if !ok {
			// Question deleted after lock. The position is skipped rather
			// than failing the whole paper.
			s.log.Warn().Str("question_id", qid.String()).Msg("Locked question missing from bank")
			continue
		}
		paper.Questions = append(paper.Questions, model.QuestionForCandidate{
			ID:           q.ID,
			Position:     i + 1,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Options:      q.Options,
			Marks:        q.Marks,
		})
	}

	if exam.RandomizeQuestions && exam.QuestionSelectionCount > 0 && len(session.LockedQuestionOrder) < exam.QuestionSelectionCount {
		paper.SelectionReduced = true
	}

	if session.Status == model.SessionStatusNotStarted {
		if err := s.sessionRepo.MarkInProgress(ctx, session.ID, time.Now()); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("mark in progress: %w", err)
		}
	}

	return paper, nil
}

// GetState returns the attempt's status and remaining wall-clock time for a
// reconnecting device.
func (s *AssemblerService) GetState(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSessionState, error) {
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

	state := &model.ExamSessionState{
		ExamID:    examID,
		StudentID: studentID,
		Status:    session.Status,
	}

	if session.Status == model.SessionStatusInProgress && session.StartedAt != nil {
		deadline := session.StartedAt.Add(time.Duration(exam.DurationMinutes) * time.Minute)
		remaining := time.Until(deadline).Seconds()
		if remaining < 0 {
			remaining = 0
		}
		state.TimeRemainingSeconds = remaining
	} else if session.Status == model.SessionStatusNotStarted {
		state.TimeRemainingSeconds = float64(exam.DurationMinutes * 60)
	}

	return state, nil
}
