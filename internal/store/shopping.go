package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mom/internal/model"
	"github.com/google/uuid"
)

const shoppingColumns = `id, text, bought, created_at, updated_at`

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

// NewShoppingItemID returns a fresh shopping item identifier.
func NewShoppingItemID() string {
	return "shp_" + uuid.NewString()
}

func (s *ShoppingStore) Create(text string) (*model.ShoppingItem, error) {
	id := NewShoppingItemID()
	if _, err := s.db.Exec(`INSERT INTO shopping_items (id, text) VALUES (?, ?)`, id, text); err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingStore) GetByID(id string) (*model.ShoppingItem, error) {
	item, err := scanShoppingItem(s.db.QueryRow(`SELECT `+shoppingColumns+` FROM shopping_items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping item: %w", err)
	}
	return item, nil
}

// List returns items newest first, bought or not.
func (s *ShoppingStore) List() ([]model.ShoppingItem, error) {
	rows, err := s.db.Query(`SELECT ` + shoppingColumns + ` FROM shopping_items ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ToggleBought flips the bought flag and returns the updated item.
func (s *ShoppingStore) ToggleBought(id string) (*model.ShoppingItem, error) {
	_, err := s.db.Exec(
		`UPDATE shopping_items SET bought = 1 - bought, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle shopping item: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM shopping_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return nil
}

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var bought int
	if err := scanner.Scan(&item.ID, &item.Text, &bought, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Bought = bought != 0
	return &item, nil
}
