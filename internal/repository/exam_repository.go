package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpoint/cbt-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, subject_id, duration_minutes, total_marks, pass_mark,
		        randomize_questions, question_selection_count, status, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.SubjectID, &e.DurationMinutes, &e.TotalMarks, &e.PassMark,
		&e.RandomizeQuestions, &e.QuestionSelectionCount, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListAssignedQuestionIDs returns the identifiers of questions explicitly
// assigned to an exam, in their configured order.
func (r *ExamRepository) ListAssignedQuestionIDs(ctx context.Context, examID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id FROM exam_questions
		 WHERE exam_id = $1
		 ORDER BY order_num`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListAssignedTopicIDs returns the topic identifiers assigned to an exam.
func (r *ExamRepository) ListAssignedTopicIDs(ctx context.Context, examID uuid.UUID) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT topic_id FROM exam_topics WHERE exam_id = $1 ORDER BY topic_id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
