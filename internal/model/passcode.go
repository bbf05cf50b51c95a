package model

import (
	"time"

	"github.com/google/uuid"
)

// Passcode is a single-use admission credential binding a student to an
// exam sitting and, optionally, a physical seat in a hall.
type Passcode struct {
	ID         uuid.UUID  `json:"id"`
	Code       string     `json:"code"`
	StudentID  int        `json:"student_id"`
	ExamID     *uuid.UUID `json:"exam_id,omitempty"`
	ExamHallID *int       `json:"exam_hall_id,omitempty"`
	SeatNumber *int       `json:"seat_number,omitempty"`
	IssuedBy   int        `json:"issued_by"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	IsUsed     bool       `json:"is_used"`
}

// IsExpired reports whether the passcode has passed its expiry wall-clock
// time. Expiry is always judged against the durable record, never a cache TTL.
func (p *Passcode) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// IsActive reports whether the passcode can still be redeemed.
func (p *Passcode) IsActive(now time.Time) bool {
	return !p.IsUsed && !p.IsExpired(now)
}

// PasscodeView is the projection returned to proctors and the redemption
// gate. It carries the student's display identity alongside the credential.
type PasscodeView struct {
	Code        string     `json:"code"`
	StudentID   int        `json:"student_id"`
	AdmissionNo string     `json:"admission_no"`
	StudentName string     `json:"student_name"`
	ExamID      *uuid.UUID `json:"exam_id,omitempty"`
	ExamHallID  *int       `json:"exam_hall_id,omitempty"`
	HallName    string     `json:"hall_name,omitempty"`
	SeatNumber  *int       `json:"seat_number,omitempty"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	IsUsed      bool       `json:"is_used"`
}

// GeneratePasscodeRequest is the proctor payload for issuing a passcode.
type GeneratePasscodeRequest struct {
	StudentID       int        `json:"student_id" binding:"required"`
	ExamID          *uuid.UUID `json:"exam_id" binding:"omitempty"`
	ExamHallID      *int       `json:"exam_hall_id" binding:"omitempty"`
	ValidityMinutes int        `json:"validity_minutes" binding:"omitempty,min=5,max=720"`
}

// RedeemPasscodeRequest is the payload a CBT station sends to trade a
// passcode for a session token.
type RedeemPasscodeRequest struct {
	AdmissionNo string `json:"admission_no" binding:"required,min=4,max=30"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
}

// PasscodeEventType enumerates audit-trail event kinds.
type PasscodeEventType string

const (
	PasscodeEventIssued   PasscodeEventType = "ISSUED"
	PasscodeEventConsumed PasscodeEventType = "CONSUMED"
	PasscodeEventRevoked  PasscodeEventType = "REVOKED"
)

// PasscodeEvent is one entry of the passcode audit trail. Events are queued
// in Redis and batch-persisted by the audit worker.
type PasscodeEvent struct {
	Type       PasscodeEventType `json:"type"`
	Code       string            `json:"code"`
	StudentID  int               `json:"student_id"`
	ExamHallID *int              `json:"exam_hall_id,omitempty"`
	SeatNumber *int              `json:"seat_number,omitempty"`
	ActorID    int               `json:"actor_id"`
	OccurredAt time.Time         `json:"occurred_at"`
}
