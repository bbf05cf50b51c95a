package model

import "time"

// ProctorRole determines what a staff account may do at the exam desk.
type ProctorRole string

const (
	// RoleProctor issues and revokes passcodes for its assigned halls.
	RoleProctor ProctorRole = "PROCTOR"
	// RoleExamOfficer additionally reads results and monitors halls.
	RoleExamOfficer ProctorRole = "EXAM_OFFICER"
)

// Proctor represents a staff user of the CBT admission desk.
type Proctor struct {
	ID           int         `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"-"`
	Role         ProctorRole `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ProctorLoginRequest is the payload for proctor authentication.
type ProctorLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// ProctorLoginResponse is returned after successful proctor login.
type ProctorLoginResponse struct {
	Token       string   `json:"token"`
	Proctor     Proctor  `json:"proctor"`
	Permissions []string `json:"permissions"`
}
