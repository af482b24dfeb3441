package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mom/internal/model"
	"github.com/google/uuid"
)

const appointmentColumns = `id, title, starts_at, note, created_at, updated_at`

type AppointmentStore struct {
	db *sql.DB
}

func NewAppointmentStore(db *sql.DB) *AppointmentStore {
	return &AppointmentStore{db: db}
}

// NewAppointmentID returns a fresh appointment identifier.
func NewAppointmentID() string {
	return "app_" + uuid.NewString()
}

func (s *AppointmentStore) Create(title, startsAt, note string) (*model.Appointment, error) {
	id := NewAppointmentID()
	_, err := s.db.Exec(
		`INSERT INTO appointments (id, title, starts_at, note) VALUES (?, ?, ?, ?)`,
		id, title, startsAt, note,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return s.GetByID(id)
}

func (s *AppointmentStore) GetByID(id string) (*model.Appointment, error) {
	a, err := scanAppointment(s.db.QueryRow(`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

// List returns appointments ordered by their stored start text. Values
// entered through the API share one layout, so this is chronological.
func (s *AppointmentStore) List() ([]model.Appointment, error) {
	rows, err := s.db.Query(`SELECT ` + appointmentColumns + ` FROM appointments ORDER BY starts_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

func (s *AppointmentStore) Update(id, title, startsAt, note string) (*model.Appointment, error) {
	_, err := s.db.Exec(
		`UPDATE appointments SET title = ?, starts_at = ?, note = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, startsAt, note, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return s.GetByID(id)
}

func (s *AppointmentStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

func scanAppointment(scanner interface{ Scan(...any) error }) (*model.Appointment, error) {
	var a model.Appointment
	if err := scanner.Scan(&a.ID, &a.Title, &a.Datetime, &a.Note, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
