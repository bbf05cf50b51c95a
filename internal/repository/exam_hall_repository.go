package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpoint/cbt-backend/internal/model"
)

// ExamHallRepository handles exam hall data access.
type ExamHallRepository struct {
	pool *pgxpool.Pool
}

// NewExamHallRepository creates a new ExamHallRepository.
func NewExamHallRepository(pool *pgxpool.Pool) *ExamHallRepository {
	return &ExamHallRepository{pool: pool}
}

// GetByID retrieves an exam hall by ID.
func (r *ExamHallRepository) GetByID(ctx context.Context, id int) (*model.ExamHall, error) {
	h := &model.ExamHall{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, number_of_seats, created_at, updated_at
		 FROM exam_halls WHERE id = $1`, id,
	).Scan(&h.ID, &h.Name, &h.NumberOfSeats, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// List retrieves all exam halls ordered by name.
func (r *ExamHallRepository) List(ctx context.Context) ([]model.ExamHall, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, number_of_seats, created_at, updated_at
		 FROM exam_halls ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var halls []model.ExamHall
	for rows.Next() {
		var h model.ExamHall
		if err := rows.Scan(&h.ID, &h.Name, &h.NumberOfSeats, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		halls = append(halls, h)
	}
	return halls, rows.Err()
}
