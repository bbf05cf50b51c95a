package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classpoint/cbt-backend/internal/config"
	"github.com/classpoint/cbt-backend/internal/database"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/repository"
)

// Domain errors for passcode issuance and redemption. All are expected
// business outcomes, not infrastructure faults.
var (
	ErrDuplicateActivePasscode = errors.New("student already holds an active passcode")
	ErrHallFull                = errors.New("no seat available in the requested hall today")
	ErrPasscodeNotFound        = errors.New("passcode not found")
	ErrPasscodeUsed            = errors.New("passcode already used")
	ErrPasscodeExpired         = errors.New("passcode expired")
	ErrOwnershipMismatch       = errors.New("passcode belongs to a different student")
	ErrStudentNotFound         = errors.New("student not found")
)

const codeGenAttempts = 5

// cacheRetryAttempts bounds best-effort cache writes; the durable record
// stays authoritative, so exhausting retries only costs latency.
const (
	cacheRetryAttempts = 2
	cacheRetryBackoff  = 50 * time.Millisecond
)

// PasscodeService issues, validates, consumes, and revokes single-use exam
// passcodes, and allocates exam-hall seats.
type PasscodeService struct {
	passcodeRepo *repository.PasscodeRepository
	studentRepo  *repository.StudentRepository
	hallRepo     *repository.ExamHallRepository
	rdb          *redis.Client
	cfg          *config.Config
	log          zerolog.Logger
}

// NewPasscodeService creates a new PasscodeService.
func NewPasscodeService(
	passcodeRepo *repository.PasscodeRepository,
	studentRepo *repository.StudentRepository,
	hallRepo *repository.ExamHallRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *PasscodeService {
	return &PasscodeService{
		passcodeRepo: passcodeRepo,
		studentRepo:  studentRepo,
		hallRepo:     hallRepo,
		rdb:          rdb,
		cfg:          cfg,
		log:          log.With().Str("component", "passcode_service").Logger(),
	}
}

// Generate mints a passcode for a student, allocating a hall seat when a
// hall is requested. At most one active passcode may exist per student.
func (s *PasscodeService) Generate(ctx context.Context, req *model.GeneratePasscodeRequest, issuedBy int) (*model.PasscodeView, error) {
	student, err := s.studentRepo.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("resolve student: %w", err)
	}

	// One live passcode per student. This read is a fast path for the
	// common case; the insert re-checks under a per-student advisory lock,
	// which is what actually holds the rule under concurrent issuance.
	if existing, err := s.passcodeRepo.GetActiveByStudent(ctx, req.StudentID); err == nil && existing != nil {
		return nil, ErrDuplicateActivePasscode
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check active passcode: %w", err)
	}

	validity := s.cfg.PasscodeValidity
	if req.ValidityMinutes > 0 {
		validity = time.Duration(req.ValidityMinutes) * time.Minute
	}

	now := time.Now()
	passcode := &model.Passcode{
		StudentID:  req.StudentID,
		ExamID:     req.ExamID,
		ExamHallID: req.ExamHallID,
		IssuedBy:   issuedBy,
		IssuedAt:   now,
		ExpiresAt:  now.Add(validity),
	}

	var hallName string
	if req.ExamHallID != nil {
		hall, err := s.hallRepo.GetByID(ctx, *req.ExamHallID)
		if err != nil {
			return nil, fmt.Errorf("resolve hall: %w", err)
		}
		hallName = hall.Name

		if err := s.createWithFreshCode(ctx, passcode, func(c context.Context, p *model.Passcode) error {
			return s.passcodeRepo.CreateWithSeat(c, p, hall.NumberOfSeats)
		}); err != nil {
			if errors.Is(err, repository.ErrHallFull) {
				return nil, ErrHallFull
			}
			return nil, mapActiveExists(err)
		}
	} else {
		if err := s.createWithFreshCode(ctx, passcode, s.passcodeRepo.Create); err != nil {
			return nil, mapActiveExists(err)
		}
	}

	s.mirrorToCache(ctx, passcode)
	s.publishEvent(ctx, model.PasscodeEventIssued, passcode, issuedBy)

	s.log.Info().
		Int("student_id", passcode.StudentID).
		Str("code", passcode.Code).
		Msg("Passcode issued")

	return buildView(passcode, student, hallName), nil
}

// mapActiveExists translates the repository's locked re-check failure into
// the same error the fast-path check raises.
func mapActiveExists(err error) error {
	if errors.Is(err, repository.ErrActiveExists) {
		return ErrDuplicateActivePasscode
	}
	return err
}

// createWithFreshCode draws random codes until the insert lands, bounded by
// codeGenAttempts. A collision against any stored code, live or historical,
// triggers a fresh draw; history is never reused.
func (s *PasscodeService) createWithFreshCode(ctx context.Context, p *model.Passcode, insert func(context.Context, *model.Passcode) error) error {
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code

		err = insert(ctx, p)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		return err
	}
	return fmt.Errorf("code space exhausted after %d attempts", codeGenAttempts)
}

// GenerateCode draws a uniformly random 6-digit numeric string from a
// cryptographically strong source.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Validate looks up a passcode by code, preferring the cache and falling
// back to the durable store on any miss. Expiry is judged by wall clock,
// never by cache TTL. When studentID is non-zero the owner must match.
func (s *PasscodeService) Validate(ctx context.Context, code string, studentID int) (*model.Passcode, error) {
	passcode, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	if passcode.IsUsed {
		return nil, ErrPasscodeUsed
	}
	if passcode.IsExpired(time.Now()) {
		return nil, ErrPasscodeExpired
	}
	if studentID != 0 && passcode.StudentID != studentID {
		return nil, ErrOwnershipMismatch
	}

	return passcode, nil
}

// Consume atomically marks a passcode used. Exactly one of any concurrent
// callers wins; the rest observe ErrPasscodeUsed.
func (s *PasscodeService) Consume(ctx context.Context, code string) (*model.Passcode, error) {
	// Reject expired codes up front; the CAS below only guards reuse.
	if _, err := s.Validate(ctx, code, 0); err != nil {
		return nil, err
	}

	passcode, err := s.passcodeRepo.MarkUsed(ctx, code, time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race: the code existed a moment ago, so the only
			// way to zero rows is a concurrent consume.
			return nil, ErrPasscodeUsed
		}
		return nil, fmt.Errorf("mark used: %w", err)
	}

	s.invalidateCache(ctx, passcode)
	s.publishEvent(ctx, model.PasscodeEventConsumed, passcode, passcode.StudentID)

	return passcode, nil
}

// Revoke marks a passcode used without issuing a session. Idempotent:
// revoking an already-used code returns false rather than an error.
func (s *PasscodeService) Revoke(ctx context.Context, code string, actorID int) (bool, error) {
	passcode, err := s.passcodeRepo.MarkUsed(ctx, code, time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already used, or never existed. Distinguish for the caller.
			if _, lookupErr := s.passcodeRepo.GetByCode(ctx, code); lookupErr != nil {
				if errors.Is(lookupErr, pgx.ErrNoRows) {
					return false, ErrPasscodeNotFound
				}
				return false, lookupErr
			}
			return false, nil
		}
		return false, fmt.Errorf("mark used: %w", err)
	}

	s.invalidateCache(ctx, passcode)
	s.publishEvent(ctx, model.PasscodeEventRevoked, passcode, actorID)

	return true, nil
}

// GetActive returns the student's current live passcode, or nil when none
// exists. Absence is a normal answer, not an error. This always queries the
// durable store; the active pointer in the cache is a redemption-path
// accelerator, not an index to report from.
func (s *PasscodeService) GetActive(ctx context.Context, studentID int) (*model.PasscodeView, error) {
	passcode, err := s.passcodeRepo.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active passcode: %w", err)
	}

	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("resolve student: %w", err)
	}

	var hallName string
	if passcode.ExamHallID != nil {
		if hall, err := s.hallRepo.GetByID(ctx, *passcode.ExamHallID); err == nil {
			hallName = hall.Name
		}
	}

	return buildView(passcode, student, hallName), nil
}

// View resolves a passcode into its proctor-facing projection.
func (s *PasscodeService) View(ctx context.Context, passcode *model.Passcode) (*model.PasscodeView, error) {
	student, err := s.studentRepo.GetByID(ctx, passcode.StudentID)
	if err != nil {
		return nil, fmt.Errorf("resolve student: %w", err)
	}
	var hallName string
	if passcode.ExamHallID != nil {
		if hall, err := s.hallRepo.GetByID(ctx, *passcode.ExamHallID); err == nil {
			hallName = hall.Name
		}
	}
	return buildView(passcode, student, hallName), nil
}

// ────────────────────────────────────────────────────────────────────────────
// Cache plumbing
// ────────────────────────────────────────────────────────────────────────────

// lookup reads the passcode snapshot from the cache, falling back to
// Postgres and self-healing the cache on a miss.
func (s *PasscodeService) lookup(ctx context.Context, code string) (*model.Passcode, error) {
	key := config.CacheKey.PasscodeKey(code)

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var cached model.Passcode
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return &cached, nil
		}
		// Corrupt entry: drop it and fall through to the durable store.
		_ = s.rdb.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Cache read failed, falling back to store")
	}

	passcode, err := s.passcodeRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPasscodeNotFound
		}
		return nil, fmt.Errorf("get passcode: %w", err)
	}

	s.mirrorToCache(ctx, passcode)
	return passcode, nil
}

// mirrorToCache writes the snapshot and the per-student active pointer,
// TTL'd to the remaining validity. Best effort: failures are logged, never
// surfaced, because the durable record is authoritative.
func (s *PasscodeService) mirrorToCache(ctx context.Context, p *model.Passcode) {
	ttl := time.Until(p.ExpiresAt)
	if ttl <= 0 {
		return
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return
	}

	err = database.WithRetry(ctx, cacheRetryAttempts, cacheRetryBackoff, func() error {
		pipe := s.rdb.Pipeline()
		pipe.Set(ctx, config.CacheKey.PasscodeKey(p.Code), raw, ttl)
		if !p.IsUsed {
			pipe.Set(ctx, config.CacheKey.StudentActivePasscodeKey(p.StudentID), p.Code, ttl)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		s.log.Warn().Err(err).Str("code", p.Code).Msg("Cache mirror failed")
	}
}

// invalidateCache drops both keys after a durable mutation.
func (s *PasscodeService) invalidateCache(ctx context.Context, p *model.Passcode) {
	if err := s.rdb.Del(ctx,
		config.CacheKey.PasscodeKey(p.Code),
		config.CacheKey.StudentActivePasscodeKey(p.StudentID),
	).Err(); err != nil {
		s.log.Warn().Err(err).Str("code", p.Code).Msg("Cache invalidation failed")
	}
}

// publishEvent queues an audit-trail entry and, when a hall is involved,
// pushes a live event to the hall's monitor channel.
func (s *PasscodeService) publishEvent(ctx context.Context, kind model.PasscodeEventType, p *model.Passcode, actorID int) {
	event := model.PasscodeEvent{
		Type:       kind,
		Code:       p.Code,
		StudentID:  p.StudentID,
		ExamHallID: p.ExamHallID,
		SeatNumber: p.SeatNumber,
		ActorID:    actorID,
		OccurredAt: time.Now(),
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PasscodeEventsQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).Msg("Audit event enqueue failed")
	}

	if p.ExamHallID != nil {
		channel := config.CacheKey.HallMonitorChannel(*p.ExamHallID)
		if err := s.rdb.Publish(ctx, channel, raw).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Monitor publish failed")
		}
	}
}

func buildView(p *model.Passcode, student *model.Student, hallName string) *model.PasscodeView {
	return &model.PasscodeView{
		Code:        p.Code,
		StudentID:   p.StudentID,
		AdmissionNo: student.AdmissionNo,
		StudentName: student.Name,
		ExamID:      p.ExamID,
		ExamHallID:  p.ExamHallID,
		HallName:    hallName,
		SeatNumber:  p.SeatNumber,
		IssuedAt:    p.IssuedAt,
		ExpiresAt:   p.ExpiresAt,
		IsUsed:      p.IsUsed,
	}
}
