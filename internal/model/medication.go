package model

import "time"

// Medication is a daily medication reminder. Only the hour and minute of
// Time recur; the date part is whatever the user entered when creating it.
type Medication struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dose      string    `json:"dose"`
	Time      string    `json:"time"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
