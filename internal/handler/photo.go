package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/mom/internal/store"
	"github.com/dukerupert/mom/internal/websocket"
)

type PhotoHandler struct {
	store  *store.PhotoStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewPhotoHandler(ps *store.PhotoStore, hub *websocket.Hub, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{store: ps, hub: hub, logger: logger}
}

func (h *PhotoHandler) broadcast(action, id string) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityPhoto, action, id, nil))
	}
}

type photoRequest struct {
	Name string `json:"name"`
	Src  string `json:"src"`
	Date string `json:"date"`
}

// List handles GET /api/photos
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	photos, err := h.store.List()
	if err != nil {
		h.logger.Error("list photos", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list photos")
		return
	}
	if photos == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// Create handles POST /api/photos. The picture travels inline as an image
// data URL, the way the browser's file reader produces it.
func (h *PhotoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req photoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if !strings.HasPrefix(req.Src, "data:image/") {
		writeError(w, http.StatusBadRequest, "src must be an image data URL")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().UTC().Format(time.RFC3339)
	}

	p, err := h.store.Create(req.Name, req.Src, req.Date)
	if err != nil {
		h.logger.Error("create photo", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	h.broadcast("created", p.ID)
	writeJSON(w, http.StatusCreated, p)
}

// Delete handles DELETE /api/photos/{id}
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get photo", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete photo", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete photo")
		return
	}

	h.broadcast("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
