package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/mom/internal/store"
	"github.com/dukerupert/mom/internal/websocket"
)

type RecipeHandler struct {
	store  *store.RecipeStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewRecipeHandler(rs *store.RecipeStore, hub *websocket.Hub, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{store: rs, hub: hub, logger: logger}
}

func (h *RecipeHandler) broadcast(action, id string) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityRecipe, action, id, nil))
	}
}

// recipeRequest accepts steps either as a list or as one step per line.
type recipeRequest struct {
	Title string          `json:"title"`
	Steps json.RawMessage `json:"steps"`
}

func (req *recipeRequest) steps() ([]string, bool) {
	var raw []string
	if len(req.Steps) > 0 && string(req.Steps) != "null" {
		if err := json.Unmarshal(req.Steps, &raw); err != nil {
			var text string
			if err := json.Unmarshal(req.Steps, &text); err != nil {
				return nil, false
			}
			raw = strings.Split(text, "\n")
		}
	}

	steps := []string{}
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	return steps, true
}

// List handles GET /api/recipes
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.store.List()
	if err != nil {
		h.logger.Error("list recipes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	if recipes == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// Create handles POST /api/recipes
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	steps, ok := req.steps()
	if !ok {
		writeError(w, http.StatusBadRequest, "steps must be a list or text")
		return
	}

	rc, err := h.store.Create(req.Title, steps)
	if err != nil {
		h.logger.Error("create recipe", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create recipe")
		return
	}

	h.broadcast("created", rc.ID)
	writeJSON(w, http.StatusCreated, rc)
}

// Delete handles DELETE /api/recipes/{id}
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get recipe", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get recipe")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "recipe not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete recipe", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete recipe")
		return
	}

	h.broadcast("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
