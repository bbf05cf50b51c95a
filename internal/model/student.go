package model

import "time"

// Student represents an enrolled student as seen by the CBT subsystem.
// The wider student record (guardians, fees, biometrics) lives in the main
// administration schema; this projection is what exam admission needs.
type Student struct {
	ID          int       `json:"id"`
	AdmissionNo string    `json:"admission_no"`
	Name        string    `json:"name"`
	Level       string    `json:"level"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
