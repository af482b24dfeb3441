package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mom/internal/model"
	"github.com/google/uuid"
)

const medicationColumns = `id, name, dose, remind_at, active, created_at, updated_at`

type MedicationStore struct {
	db *sql.DB
}

func NewMedicationStore(db *sql.DB) *MedicationStore {
	return &MedicationStore{db: db}
}

// NewMedicationID returns a fresh medication identifier.
func NewMedicationID() string {
	return "med_" + uuid.NewString()
}

func (s *MedicationStore) Create(name, dose, remindAt string, active bool) (*model.Medication, error) {
	id := NewMedicationID()
	_, err := s.db.Exec(
		`INSERT INTO medications (id, name, dose, remind_at, active) VALUES (?, ?, ?, ?, ?)`,
		id, name, dose, remindAt, boolToInt(active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert medication: %w", err)
	}
	return s.GetByID(id)
}

func (s *MedicationStore) GetByID(id string) (*model.Medication, error) {
	m, err := scanMedication(s.db.QueryRow(`SELECT `+medicationColumns+` FROM medications WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return m, nil
}

// List returns medications newest first.
func (s *MedicationStore) List() ([]model.Medication, error) {
	rows, err := s.db.Query(`SELECT ` + medicationColumns + ` FROM medications ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var meds []model.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		meds = append(meds, *m)
	}
	return meds, rows.Err()
}

func (s *MedicationStore) Update(id, name, dose, remindAt string, active bool) (*model.Medication, error) {
	_, err := s.db.Exec(
		`UPDATE medications SET name = ?, dose = ?, remind_at = ?, active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, dose, remindAt, boolToInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update medication: %w", err)
	}
	return s.GetByID(id)
}

// ToggleActive flips the active flag and returns the updated medication.
func (s *MedicationStore) ToggleActive(id string) (*model.Medication, error) {
	_, err := s.db.Exec(
		`UPDATE medications SET active = 1 - active, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle medication: %w", err)
	}
	return s.GetByID(id)
}

func (s *MedicationStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM medications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	return nil
}

func scanMedication(scanner interface{ Scan(...any) error }) (*model.Medication, error) {
	var m model.Medication
	var activeInt int
	if err := scanner.Scan(&m.ID, &m.Name, &m.Dose, &m.Time, &activeInt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Active = activeInt != 0
	return &m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
