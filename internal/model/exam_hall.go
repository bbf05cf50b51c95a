package model

import "time"

// ExamHall represents a physical room with a fixed seat capacity. Seats are
// numbered 1..NumberOfSeats; allocation never exceeds that bound.
type ExamHall struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	NumberOfSeats int       `json:"number_of_seats"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
