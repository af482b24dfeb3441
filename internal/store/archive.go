package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/mom/internal/model"
)

// ArchiveStore reads and replaces the whole household data set at once.
type ArchiveStore struct {
	db *sql.DB
}

func NewArchiveStore(db *sql.DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

// Export collects every record into an archive stamped with exportedAt.
// Collections are never nil so that they encode as [].
func (s *ArchiveStore) Export(exportedAt time.Time) (*model.Archive, error) {
	meds, err := NewMedicationStore(s.db).List()
	if err != nil {
		return nil, fmt.Errorf("export medications: %w", err)
	}
	appts, err := NewAppointmentStore(s.db).List()
	if err != nil {
		return nil, fmt.Errorf("export appointments: %w", err)
	}
	shopping, err := NewShoppingStore(s.db).List()
	if err != nil {
		return nil, fmt.Errorf("export shopping: %w", err)
	}
	recipes, err := NewRecipeStore(s.db).List()
	if err != nil {
		return nil, fmt.Errorf("export recipes: %w", err)
	}
	photos, err := NewPhotoStore(s.db).List()
	if err != nil {
		return nil, fmt.Errorf("export photos: %w", err)
	}

	a := &model.Archive{
		Medications:  meds,
		Appointments: appts,
		Shopping:     shopping,
		Recipes:      recipes,
		Photos:       photos,
		ExportedAt:   exportedAt,
	}
	a.Normalize()
	return a, nil
}

// Summary counts the records in each collection.
func (s *ArchiveStore) Summary() (*model.Summary, error) {
	var sum model.Summary
	counts := []struct {
		table string
		dst   *int
	}{
		{"medications", &sum.Medications},
		{"appointments", &sum.Appointments},
		{"shopping_items", &sum.Shopping},
		{"recipes", &sum.Recipes},
		{"photos", &sum.Photos},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return &sum, nil
}

// Replace discards all existing records and inserts the archive contents in
// one transaction. Records without an id get a fresh one. Collections are
// listed newest first, so rows go in from the end to keep that order.
func (s *ArchiveStore) Replace(a *model.Archive) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if err := clearTx(tx); err != nil {
		return err
	}

	for i := len(a.Medications) - 1; i >= 0; i-- {
		m := a.Medications[i]
		id := orNewID(m.ID, NewMedicationID)
		if _, err := tx.Exec(
			`INSERT INTO medications (id, name, dose, remind_at, active) VALUES (?, ?, ?, ?, ?)`,
			id, m.Name, m.Dose, m.Time, boolToInt(m.Active),
		); err != nil {
			return fmt.Errorf("import medication %q: %w", id, err)
		}
	}
	for i := len(a.Appointments) - 1; i >= 0; i-- {
		ap := a.Appointments[i]
		id := orNewID(ap.ID, NewAppointmentID)
		if _, err := tx.Exec(
			`INSERT INTO appointments (id, title, starts_at, note) VALUES (?, ?, ?, ?)`,
			id, ap.Title, ap.Datetime, ap.Note,
		); err != nil {
			return fmt.Errorf("import appointment %q: %w", id, err)
		}
	}
	for i := len(a.Shopping) - 1; i >= 0; i-- {
		it := a.Shopping[i]
		id := orNewID(it.ID, NewShoppingItemID)
		if _, err := tx.Exec(
			`INSERT INTO shopping_items (id, text, bought) VALUES (?, ?, ?)`,
			id, it.Text, boolToInt(it.Bought),
		); err != nil {
			return fmt.Errorf("import shopping item %q: %w", id, err)
		}
	}
	for i := len(a.Recipes) - 1; i >= 0; i-- {
		rc := a.Recipes[i]
		id := orNewID(rc.ID, NewRecipeID)
		steps, err := encodeSteps(rc.Steps)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO recipes (id, title, steps) VALUES (?, ?, ?)`,
			id, rc.Title, steps,
		); err != nil {
			return fmt.Errorf("import recipe %q: %w", id, err)
		}
	}
	for i := len(a.Photos) - 1; i >= 0; i-- {
		p := a.Photos[i]
		id := orNewID(p.ID, NewPhotoID)
		if _, err := tx.Exec(
			`INSERT INTO photos (id, name, src, taken_at) VALUES (?, ?, ?, ?)`,
			id, p.Name, p.Src, p.Date,
		); err != nil {
			return fmt.Errorf("import photo %q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// Clear deletes every record.
func (s *ArchiveStore) Clear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if err := clearTx(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

var archiveTables = []string{"medications", "appointments", "shopping_items", "recipes", "photos"}

func clearTx(tx *sql.Tx) error {
	for _, table := range archiveTables {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func orNewID(id string, newID func() string) string {
	if id == "" {
		return newID()
	}
	return id
}
