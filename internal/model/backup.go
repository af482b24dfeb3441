package model

import "time"

// Archive is the JSON document produced by export and accepted by import.
type Archive struct {
	Medications  []Medication   `json:"medications"`
	Appointments []Appointment  `json:"appointments"`
	Shopping     []ShoppingItem `json:"shopping"`
	Recipes      []Recipe       `json:"recipes"`
	Photos       []Photo        `json:"photos"`
	ExportedAt   time.Time      `json:"exportedAt"`
}

// Normalize replaces missing collections with empty ones.
func (a *Archive) Normalize() {
	if a.Medications == nil {
		a.Medications = []Medication{}
	}
	if a.Appointments == nil {
		a.Appointments = []Appointment{}
	}
	if a.Shopping == nil {
		a.Shopping = []ShoppingItem{}
	}
	if a.Recipes == nil {
		a.Recipes = []Recipe{}
	}
	if a.Photos == nil {
		a.Photos = []Photo{}
	}
}

type BackupStatus string

const (
	BackupStatusUploading BackupStatus = "uploading"
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
)

// Backup records one offsite copy of an archive.
type Backup struct {
	ID           int64        `json:"id"`
	Filename     string       `json:"filename"`
	S3Key        string       `json:"s3_key"`
	SizeBytes    int64        `json:"size_bytes"`
	Encrypted    bool         `json:"encrypted"`
	Status       BackupStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
