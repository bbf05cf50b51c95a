package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpoint/cbt-backend/internal/model"
)

// SessionResult combines student identity with attempt outcome for the
// exam officer's results listing.
type SessionResult struct {
	StudentID   int                 `json:"student_id"`
	AdmissionNo string              `json:"admission_no"`
	Name        string              `json:"name"`
	Status      model.SessionStatus `json:"status"`
	Score       *int                `json:"score"`
	Percentage  *float64            `json:"percentage"`
	Passed      *bool               `json:"passed"`
	SubmittedAt *time.Time          `json:"submitted_at"`
}

// ExamSessionRepository handles exam attempt data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, exam_id, student_id, status, locked_question_order,
	       started_at, submitted_at, score, percentage, passed, created_at`

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	var orderRaw []byte
	err := row.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Status, &orderRaw,
		&s.StartedAt, &s.SubmittedAt, &s.Score, &s.Percentage, &s.Passed, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(orderRaw) > 0 {
		if err := json.Unmarshal(orderRaw, &s.LockedQuestionOrder); err != nil {
			return nil, fmt.Errorf("decode locked order: %w", err)
		}
	}
	return s, nil
}

// GetByExamAndStudent retrieves the attempt for one (exam, student) pair.
func (r *ExamSessionRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID))
}

// Create inserts a new attempt with its locked question order. The
// (exam_id, student_id) unique constraint plus ON CONFLICT DO NOTHING makes
// creation idempotent: a concurrent duplicate insert scans pgx.ErrNoRows and
// the caller fetches the winner's row instead. The locked order is written
// here, once, and never recomputed.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	var orderRaw []byte
	if len(s.LockedQuestionOrder) > 0 {
		var err error
		orderRaw, err = json.Marshal(s.LockedQuestionOrder)
		if err != nil {
			return fmt.Errorf("encode locked order: %w", err)
		}
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (exam_id, student_id, status, locked_question_order)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id, created_at`,
		s.ExamID, s.StudentID, model.SessionStatusNotStarted, orderRaw,
	).Scan(&s.ID, &s.CreatedAt)
}

// MarkInProgress advances NOT_STARTED → IN_PROGRESS and stamps started_at.
// The WHERE clause keeps the transition forward-only and records the start
// time exactly once; later calls are no-ops.
func (r *ExamSessionRepository) MarkInProgress(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $2, started_at = $3
		 WHERE id = $1 AND status = $4`,
		id, model.SessionStatusInProgress, startedAt, model.SessionStatusNotStarted)
	return err
}

// FinalizeGraded hands in an attempt: flips the status to SUBMITTED with a
// compare-and-set, writes one answer record per locked question, and stores
// the aggregate, all in one transaction. Returns pgx.ErrNoRows when the
// attempt was already handed in; under concurrent double submission exactly
// one caller commits.
func (r *ExamSessionRepository) FinalizeGraded(ctx context.Context, id uuid.UUID, result *model.GradedResult, submittedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $2, submitted_at = $3, score = $4, percentage = $5, passed = $6
		 WHERE id = $1 AND status IN ($7, $8)`,
		id, model.SessionStatusSubmitted, submittedAt,
		result.Score, result.Percentage, result.Passed,
		model.SessionStatusNotStarted, model.SessionStatusInProgress)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if err := bulkInsertAnswers(ctx, tx, id, result.Answers); err != nil {
		return fmt.Errorf("insert answers: %w", err)
	}

	return tx.Commit(ctx)
}

// bulkInsertAnswers writes all answer records in a single UNNEST statement.
func bulkInsertAnswers(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, answers []model.AnswerRecord) error {
	if len(answers) == 0 {
		return nil
	}

	n := len(answers)
	questionIDs := make([]uuid.UUID, 0, n)
	positions := make([]int, 0, n)
	texts := make([]string, 0, n)
	corrects := make([]*bool, 0, n)
	marks := make([]int, 0, n)

	for _, a := range answers {
		questionIDs = append(questionIDs, a.QuestionID)
		positions = append(positions, a.Position)
		texts = append(texts, a.SubmittedText)
		corrects = append(corrects, a.IsCorrect)
		marks = append(marks, a.MarksObtained)
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO answer_records (session_id, question_id, position, submitted_text, is_correct, marks_obtained)
		SELECT $1, u.question_id, u.position, u.submitted_text, u.is_correct, u.marks_obtained
		FROM UNNEST(
			$2::uuid[],
			$3::int[],
			$4::text[],
			$5::boolean[],
			$6::int[]
		) AS u (question_id, position, submitted_text, is_correct, marks_obtained)
	`, sessionID, questionIDs, positions, texts, corrects, marks)
	return err
}

// ListAnswers retrieves the answer records of an attempt in locked order.
func (r *ExamSessionRepository) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, question_id, position, submitted_text, is_correct, marks_obtained
		 FROM answer_records
		 WHERE session_id = $1
		 ORDER BY position`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.AnswerRecord
	for rows.Next() {
		var a model.AnswerRecord
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.Position,
			&a.SubmittedText, &a.IsCorrect, &a.MarksObtained); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ListResultsByExam retrieves graded and in-flight attempts for an exam,
// joined with student identity, paginated.
func (r *ExamSessionRepository) ListResultsByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]SessionResult, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_sessions WHERE exam_id = $1`, examID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.admission_no, s.name, es.status, es.score, es.percentage, es.passed, es.submitted_at
		 FROM exam_sessions es
		 JOIN students s ON es.student_id = s.id
		 WHERE es.exam_id = $1
		 ORDER BY s.name
		 LIMIT $2 OFFSET $3`, examID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []SessionResult
	for rows.Next() {
		var sr SessionResult
		if err := rows.Scan(&sr.StudentID, &sr.AdmissionNo, &sr.Name, &sr.Status,
			&sr.Score, &sr.Percentage, &sr.Passed, &sr.SubmittedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, sr)
	}
	return results, total, rows.Err()
}
