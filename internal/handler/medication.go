package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/mom/internal/reminder"
	"github.com/dukerupert/mom/internal/store"
	"github.com/dukerupert/mom/internal/websocket"
)

type MedicationHandler struct {
	store  *store.MedicationStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewMedicationHandler(ms *store.MedicationStore, hub *websocket.Hub, logger *slog.Logger) *MedicationHandler {
	return &MedicationHandler{store: ms, hub: hub, logger: logger}
}

func (h *MedicationHandler) broadcast(action, id string) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityMedication, action, id, nil))
	}
}

type medicationRequest struct {
	Name   string `json:"name"`
	Dose   string `json:"dose"`
	Time   string `json:"time"`
	Active *bool  `json:"active"`
}

func (req *medicationRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Dose = strings.TrimSpace(req.Dose)
	req.Time = strings.TrimSpace(req.Time)
	if req.Name == "" {
		return "name is required"
	}
	if _, _, err := reminder.ParseTimeOfDay(req.Time, time.Local); err != nil {
		return "time must be a time of day such as 09:00"
	}
	return ""
}

func (req *medicationRequest) active() bool {
	return req.Active == nil || *req.Active
}

// List handles GET /api/medications
func (h *MedicationHandler) List(w http.ResponseWriter, r *http.Request) {
	meds, err := h.store.List()
	if err != nil {
		h.logger.Error("list medications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list medications")
		return
	}
	if meds == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, meds)
}

// Create handles POST /api/medications
func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	med, err := h.store.Create(req.Name, req.Dose, req.Time, req.active())
	if err != nil {
		h.logger.Error("create medication", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create medication")
		return
	}

	h.broadcast("created", med.ID)
	writeJSON(w, http.StatusCreated, med)
}

// Update handles PUT /api/medications/{id}
func (h *MedicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get medication", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get medication")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}

	med, err := h.store.Update(id, req.Name, req.Dose, req.Time, active)
	if err != nil {
		h.logger.Error("update medication", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update medication")
		return
	}

	h.broadcast("updated", id)
	writeJSON(w, http.StatusOK, med)
}

// Toggle handles POST /api/medications/{id}/toggle
func (h *MedicationHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	med, err := h.store.ToggleActive(id)
	if err != nil {
		h.logger.Error("toggle medication", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle medication")
		return
	}
	if med == nil {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	h.broadcast("updated", id)
	writeJSON(w, http.StatusOK, med)
}

// Delete handles DELETE /api/medications/{id}
func (h *MedicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get medication", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get medication")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete medication", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete medication")
		return
	}

	h.broadcast("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
