package model

import "time"

// Subject represents an academic subject the question bank is organized under.
type Subject struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Topic is a named slice of a subject's question bank. Exams may assign
// topics instead of explicit questions; assembly then pools the verified
// questions under those topics.
type Topic struct {
	ID        int    `json:"id"`
	SubjectID int    `json:"subject_id"`
	Name      string `json:"name"`
}
