package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpoint/cbt-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, subject_id, topic_id, question_text, question_type,
	       options, correct_answer, marks, verified`

// GetByIDs retrieves questions by identifier, keyed for order-preserving
// lookup against a locked question order.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make(map[uuid.UUID]model.Question, len(ids))
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.SubjectID, &q.TopicID, &q.QuestionText, &q.QuestionType,
			&q.Options, &q.CorrectAnswer, &q.Marks, &q.Verified); err != nil {
			return nil, err
		}
		questions[q.ID] = q
	}
	return questions, rows.Err()
}

// ListVerifiedIDsByTopics returns the identifiers of verified questions
// under any of the given topics.
func (r *QuestionRepository) ListVerifiedIDsByTopics(ctx context.Context, topicIDs []int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM questions
		 WHERE topic_id = ANY($1) AND verified = TRUE
		 ORDER BY id`, topicIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUUIDs(rows)
}

// ListIDsBySubject returns the identifiers of all questions under a subject.
func (r *QuestionRepository) ListIDsBySubject(ctx context.Context, subjectID int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM questions WHERE subject_id = $1 ORDER BY id`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUUIDs(rows)
}

func collectUUIDs(rows pgx.Rows) ([]uuid.UUID, error) {
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
