package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/mom/internal/reminder"
)

// SnapshotSource supplies the scheduler with the current records on every
// tick.
type SnapshotSource struct {
	meds  *MedicationStore
	appts *AppointmentStore
}

var _ reminder.Source = (*SnapshotSource)(nil)

func NewSnapshotSource(db *sql.DB) *SnapshotSource {
	return &SnapshotSource{
		meds:  NewMedicationStore(db),
		appts: NewAppointmentStore(db),
	}
}

func (s *SnapshotSource) Snapshot(ctx context.Context) (reminder.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return reminder.Snapshot{}, err
	}
	meds, err := s.meds.List()
	if err != nil {
		return reminder.Snapshot{}, fmt.Errorf("snapshot medications: %w", err)
	}
	appts, err := s.appts.List()
	if err != nil {
		return reminder.Snapshot{}, fmt.Errorf("snapshot appointments: %w", err)
	}
	return reminder.Snapshot{Medications: meds, Appointments: appts}, nil
}
