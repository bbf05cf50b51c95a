package model

import (
	"time"

	"github.com/google/uuid"
)

// StudentIdentity is the identity a session token vouches for. It is the
// sole credential exam-taking endpoints accept; CBT stations never see the
// institution's primary login.
type StudentIdentity struct {
	StudentID   int        `json:"student_id"`
	AdmissionNo string     `json:"admission_no"`
	Name        string     `json:"name"`
	ExamID      *uuid.UUID `json:"exam_id,omitempty"`
	ExamHallID  *int       `json:"exam_hall_id,omitempty"`
	SeatNumber  *int       `json:"seat_number,omitempty"`
}

// SessionToken is the ephemeral bearer capability minted on passcode
// redemption. Tokens are immutable once minted; refresh rotates to a new
// token rather than extending this one.
type SessionToken struct {
	Token     string          `json:"token"`
	Identity  StudentIdentity `json:"identity"`
	ClientIP  string          `json:"client_ip"`
	UserAgent string          `json:"user_agent"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// IsExpired judges validity by wall clock, not by cache TTL: an entry that
// has not yet been evicted is still rejected once ExpiresAt has passed.
func (s *SessionToken) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
