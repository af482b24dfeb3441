package model

import "time"

// Appointment is a one-off calendar entry at an absolute instant.
type Appointment struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Datetime  string    `json:"datetime"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
