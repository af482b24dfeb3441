package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/mom/internal/model"
	"github.com/google/uuid"
)

const recipeColumns = `id, title, steps, created_at`

type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// NewRecipeID returns a fresh recipe identifier.
func NewRecipeID() string {
	return "rcp_" + uuid.NewString()
}

func (s *RecipeStore) Create(title string, steps []string) (*model.Recipe, error) {
	id := NewRecipeID()
	encoded, err := encodeSteps(steps)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`INSERT INTO recipes (id, title, steps) VALUES (?, ?, ?)`, id, title, encoded); err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	return s.GetByID(id)
}

func (s *RecipeStore) GetByID(id string) (*model.Recipe, error) {
	rc, err := scanRecipe(s.db.QueryRow(`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return rc, nil
}

// List returns recipes newest first.
func (s *RecipeStore) List() ([]model.Recipe, error) {
	rows, err := s.db.Query(`SELECT ` + recipeColumns + ` FROM recipes ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		rc, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *rc)
	}
	return recipes, rows.Err()
}

func (s *RecipeStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// encodeSteps stores the ordered steps as a JSON array. Nil becomes [].
func encodeSteps(steps []string) (string, error) {
	if steps == nil {
		steps = []string{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("encode recipe steps: %w", err)
	}
	return string(data), nil
}

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var rc model.Recipe
	var steps string
	if err := scanner.Scan(&rc.ID, &rc.Title, &steps, &rc.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(steps), &rc.Steps); err != nil {
		return nil, fmt.Errorf("decode recipe steps: %w", err)
	}
	if rc.Steps == nil {
		rc.Steps = []string{}
	}
	return &rc, nil
}
