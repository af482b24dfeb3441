package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/mom/internal/store"
	"github.com/dukerupert/mom/internal/websocket"
)

type ShoppingHandler struct {
	store  *store.ShoppingStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewShoppingHandler(ss *store.ShoppingStore, hub *websocket.Hub, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{store: ss, hub: hub, logger: logger}
}

func (h *ShoppingHandler) broadcast(action, id string) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityShopping, action, id, nil))
	}
}

// List handles GET /api/shopping
func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List()
	if err != nil {
		h.logger.Error("list shopping items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shopping items")
		return
	}
	if items == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create handles POST /api/shopping
func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	item, err := h.store.Create(req.Text)
	if err != nil {
		h.logger.Error("create shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create shopping item")
		return
	}

	h.broadcast("created", item.ID)
	writeJSON(w, http.StatusCreated, item)
}

// Toggle handles POST /api/shopping/{id}/toggle
func (h *ShoppingHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := h.store.ToggleBought(id)
	if err != nil {
		h.logger.Error("toggle shopping item", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle shopping item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "shopping item not found")
		return
	}

	h.broadcast("updated", id)
	writeJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/shopping/{id}
func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get shopping item", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get shopping item")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "shopping item not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete shopping item", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete shopping item")
		return
	}

	h.broadcast("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
