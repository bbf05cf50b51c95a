package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpoint/cbt-backend/internal/model"
)

// Repository-level sentinel errors surfaced to the passcode service.
var (
	// ErrDuplicateCode means the generated code collided with an existing
	// row. Codes are unique table-wide, history included, so the caller
	// retries with a fresh draw.
	ErrDuplicateCode = errors.New("passcode code already exists")

	// ErrHallFull means no seat in 1..capacity is free for the hall today.
	ErrHallFull = errors.New("no free seat in hall")

	// ErrActiveExists means the student already holds an unused, unexpired
	// passcode. Checked under the per-student advisory lock, so concurrent
	// issues for one student cannot both insert.
	ErrActiveExists = errors.New("student already has an active passcode")
)

// PasscodeRepository handles passcode data access.
type PasscodeRepository struct {
	pool *pgxpool.Pool
}

// NewPasscodeRepository creates a new PasscodeRepository.
func NewPasscodeRepository(pool *pgxpool.Pool) *PasscodeRepository {
	return &PasscodeRepository{pool: pool}
}

const passcodeColumns = `id, code, student_id, exam_id, exam_hall_id, seat_number,
	       issued_by, issued_at, expires_at, used_at, is_used`

func scanPasscode(row pgx.Row) (*model.Passcode, error) {
	p := &model.Passcode{}
	err := row.Scan(&p.ID, &p.Code, &p.StudentID, &p.ExamID, &p.ExamHallID, &p.SeatNumber,
		&p.IssuedBy, &p.IssuedAt, &p.ExpiresAt, &p.UsedAt, &p.IsUsed)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByCode retrieves a passcode by its 6-digit code.
func (r *PasscodeRepository) GetByCode(ctx context.Context, code string) (*model.Passcode, error) {
	return scanPasscode(r.pool.QueryRow(ctx,
		`SELECT `+passcodeColumns+` FROM passcodes WHERE code = $1`, code))
}

// GetActiveByStudent retrieves the student's unused, unexpired passcode if
// one exists. Returns pgx.ErrNoRows when the student holds none.
func (r *PasscodeRepository) GetActiveByStudent(ctx context.Context, studentID int) (*model.Passcode, error) {
	return scanPasscode(r.pool.QueryRow(ctx,
		`SELECT `+passcodeColumns+`
		 FROM passcodes
		 WHERE student_id = $1 AND is_used = FALSE AND expires_at > NOW()
		 ORDER BY issued_at DESC
		 LIMIT 1`, studentID))
}

// Create inserts a passcode without seat allocation. Returns
// ErrDuplicateCode on a code collision and ErrActiveExists when the
// student already holds a live passcode.
func (r *PasscodeRepository) Create(ctx context.Context, p *model.Passcode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.lockStudentAndCheckActive(ctx, tx, p.StudentID); err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO passcodes (code, student_id, exam_id, exam_hall_id, seat_number, issued_by, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		p.Code, p.StudentID, p.ExamID, p.ExamHallID, p.SeatNumber, p.IssuedBy, p.IssuedAt, p.ExpiresAt,
	).Scan(&p.ID)
	if err != nil {
		return mapUniqueViolation(err)
	}

	return tx.Commit(ctx)
}

// lockStudentAndCheckActive serializes passcode issuance per student. The
// one-live-passcode rule is a check-then-act, so the transaction takes a
// pg_advisory_xact_lock keyed on the student before checking: two proctor
// stations issuing for the same student at once cannot both pass the check.
// The lock is always taken before any hall lock so lock ordering is fixed.
func (r *PasscodeRepository) lockStudentAndCheckActive(ctx context.Context, tx pgx.Tx, studentID int) error {
	lockKey := fmt.Sprintf("passcode_student:%d", studentID)
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("acquire student lock: %w", err)
	}

	var active bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM passcodes
		   WHERE student_id = $1 AND is_used = FALSE AND expires_at > NOW()
		 )`, studentID).Scan(&active)
	if err != nil {
		return fmt.Errorf("check active passcode: %w", err)
	}
	if active {
		return ErrActiveExists
	}
	return nil
}

// CreateWithSeat inserts a passcode and allocates the lowest free seat in
// the hall for the current calendar day, all inside one transaction. The
// per-student active check runs first, under its own advisory lock.
//
// The scan-then-insert is a check-then-act sequence, so the transaction
// takes a pg_advisory_xact_lock keyed on (hall, day) first: two concurrent
// calls for the same hall serialize, and the same seat can never be awarded
// twice. A seat is taken only while the passcode holding it is unused;
// consuming a passcode frees its seat for reassignment the same day.
func (r *PasscodeRepository) CreateWithSeat(ctx context.Context, p *model.Passcode, hallCapacity int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.lockStudentAndCheckActive(ctx, tx, p.StudentID); err != nil {
		return err
	}

	day := p.IssuedAt.Format("2006-01-02")
	lockKey := fmt.Sprintf("hall_seats:%d:%s", *p.ExamHallID, day)
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("acquire hall lock: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT seat_number FROM passcodes
		 WHERE exam_hall_id = $1
		   AND is_used = FALSE
		   AND seat_number IS NOT NULL
		   AND issued_at::date = $2::date`,
		*p.ExamHallID, day)
	if err != nil {
		return fmt.Errorf("scan taken seats: %w", err)
	}

	taken := make(map[int]bool)
	for rows.Next() {
		var seat int
		if err := rows.Scan(&seat); err != nil {
			rows.Close()
			return err
		}
		taken[seat] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	seat, ok := FirstFreeSeat(hallCapacity, taken)
	if !ok {
		return ErrHallFull
	}
	p.SeatNumber = &seat

	err = tx.QueryRow(ctx,
		`INSERT INTO passcodes (code, student_id, exam_id, exam_hall_id, seat_number, issued_by, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		p.Code, p.StudentID, p.ExamID, p.ExamHallID, p.SeatNumber, p.IssuedBy, p.IssuedAt, p.ExpiresAt,
	).Scan(&p.ID)
	if err != nil {
		return mapUniqueViolation(err)
	}

	return tx.Commit(ctx)
}

// FirstFreeSeat returns the lowest seat number in 1..capacity not present
// in taken, or false when the hall is full.
func FirstFreeSeat(capacity int, taken map[int]bool) (int, bool) {
	for seat := 1; seat <= capacity; seat++ {
		if !taken[seat] {
			return seat, true
		}
	}
	return 0, false
}

// MarkUsed flips is_used exactly once. It is a compare-and-set: under
// concurrent calls for the same code exactly one caller gets the row back
// and the rest see pgx.ErrNoRows.
func (r *PasscodeRepository) MarkUsed(ctx context.Context, code string, usedAt time.Time) (*model.Passcode, error) {
	return scanPasscode(r.pool.QueryRow(ctx,
		`UPDATE passcodes
		 SET is_used = TRUE, used_at = $2
		 WHERE code = $1 AND is_used = FALSE
		 RETURNING `+passcodeColumns, code, usedAt))
}

// ListActiveByHallDay returns the unused passcodes holding seats in a hall
// on the given day, the proctor's live occupancy view.
func (r *PasscodeRepository) ListActiveByHallDay(ctx context.Context, hallID int, day time.Time) ([]model.Passcode, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+passcodeColumns+`
		 FROM passcodes
		 WHERE exam_hall_id = $1
		   AND is_used = FALSE
		   AND seat_number IS NOT NULL
		   AND issued_at::date = $2::date
		 ORDER BY seat_number`,
		hallID, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passcodes []model.Passcode
	for rows.Next() {
		p, err := scanPasscode(rows)
		if err != nil {
			return nil, err
		}
		passcodes = append(passcodes, *p)
	}
	return passcodes, rows.Err()
}

// mapUniqueViolation converts a Postgres 23505 on the code column into
// ErrDuplicateCode so the service can retry with a fresh draw.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	return err
}
