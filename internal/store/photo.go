package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mom/internal/model"
	"github.com/google/uuid"
)

const photoColumns = `id, name, src, taken_at, created_at`

type PhotoStore struct {
	db *sql.DB
}

func NewPhotoStore(db *sql.DB) *PhotoStore {
	return &PhotoStore{db: db}
}

// NewPhotoID returns a fresh photo identifier.
func NewPhotoID() string {
	return "pho_" + uuid.NewString()
}

func (s *PhotoStore) Create(name, src, date string) (*model.Photo, error) {
	id := NewPhotoID()
	_, err := s.db.Exec(`INSERT INTO photos (id, name, src, taken_at) VALUES (?, ?, ?, ?)`, id, name, src, date)
	if err != nil {
		return nil, fmt.Errorf("insert photo: %w", err)
	}
	return s.GetByID(id)
}

func (s *PhotoStore) GetByID(id string) (*model.Photo, error) {
	p, err := scanPhoto(s.db.QueryRow(`SELECT `+photoColumns+` FROM photos WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

// List returns photos newest first.
func (s *PhotoStore) List() ([]model.Photo, error) {
	rows, err := s.db.Query(`SELECT ` + photoColumns + ` FROM photos ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []model.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

func (s *PhotoStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM photos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

func scanPhoto(scanner interface{ Scan(...any) error }) (*model.Photo, error) {
	var p model.Photo
	if err := scanner.Scan(&p.ID, &p.Name, &p.Src, &p.Date, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
