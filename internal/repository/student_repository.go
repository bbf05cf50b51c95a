package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpoint/cbt-backend/internal/model"
)

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, admission_no, name, level, created_at, updated_at
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.AdmissionNo, &s.Name, &s.Level, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByAdmissionNo retrieves a student by their unique admission number.
func (r *StudentRepository) GetByAdmissionNo(ctx context.Context, admissionNo string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, admission_no, name, level, created_at, updated_at
		 FROM students WHERE admission_no = $1`, admissionNo,
	).Scan(&s.ID, &s.AdmissionNo, &s.Name, &s.Level, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
