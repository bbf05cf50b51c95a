package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classpoint/cbt-backend/internal/config"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/repository"
)

// MonitorService feeds proctor dashboards: a point-in-time seat roster per
// hall plus a live event stream relayed from Redis Pub/Sub.
type MonitorService struct {
	passcodeRepo *repository.PasscodeRepository
	studentRepo  *repository.StudentRepository
	hallRepo     *repository.ExamHallRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(
	passcodeRepo *repository.PasscodeRepository,
	studentRepo *repository.StudentRepository,
	hallRepo *repository.ExamHallRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *MonitorService {
	return &MonitorService{
		passcodeRepo: passcodeRepo,
		studentRepo:  studentRepo,
		hallRepo:     hallRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "monitor_service").Logger(),
	}
}

// HallSeat is one occupied seat in the roster snapshot.
type HallSeat struct {
	SeatNumber  int    `json:"seat_number"`
	StudentID   int    `json:"student_id"`
	AdmissionNo string `json:"admission_no"`
	StudentName string `json:"student_name"`
	Code        string `json:"code"`
}

// HallRoster is the snapshot a monitor connection receives on attach.
type HallRoster struct {
	HallID        int        `json:"hall_id"`
	HallName      string     `json:"hall_name"`
	NumberOfSeats int        `json:"number_of_seats"`
	Occupied      []HallSeat `json:"occupied"`
	AsOf          time.Time  `json:"as_of"`
}

// Roster builds today's seat occupancy for a hall from live passcodes.
func (s *MonitorService) Roster(ctx context.Context, hallID int) (*HallRoster, error) {
	hall, err := s.hallRepo.GetByID(ctx, hallID)
	if err != nil {
		return nil, fmt.Errorf("get hall: %w", err)
	}

	now := time.Now()
	passcodes, err := s.passcodeRepo.ListActiveByHallDay(ctx, hallID, now)
	if err != nil {
		return nil, fmt.Errorf("list hall passcodes: %w", err)
	}

	roster := &HallRoster{
		HallID:        hall.ID,
		HallName:      hall.Name,
		NumberOfSeats: hall.NumberOfSeats,
		Occupied:      make([]HallSeat, 0, len(passcodes)),
		AsOf:          now,
	}

	for _, p := range passcodes {
		if p.SeatNumber == nil {
			continue
		}
		seat := HallSeat{
			SeatNumber: *p.SeatNumber,
			StudentID:  p.StudentID,
			Code:       p.Code,
		}
		if student, err := s.studentRepo.GetByID(ctx, p.StudentID); err == nil {
			seat.AdmissionNo = student.AdmissionNo
			seat.StudentName = student.Name
		}
		roster.Occupied = append(roster.Occupied, seat)
	}

	return roster, nil
}

// Subscribe opens a Pub/Sub subscription on the hall's event channel. The
// caller owns the subscription and must Close it.
func (s *MonitorService) Subscribe(ctx context.Context, hallID int) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.HallMonitorChannel(hallID))
}

// Halls lists all exam halls for the monitor picker.
func (s *MonitorService) Halls(ctx context.Context) ([]model.ExamHall, error) {
	return s.hallRepo.List(ctx)
}
