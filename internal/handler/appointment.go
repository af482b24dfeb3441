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

type AppointmentHandler struct {
	store  *store.AppointmentStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewAppointmentHandler(as *store.AppointmentStore, hub *websocket.Hub, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{store: as, hub: hub, logger: logger}
}

func (h *AppointmentHandler) broadcast(action, id string) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityAppointment, action, id, nil))
	}
}

type appointmentRequest struct {
	Title    string `json:"title"`
	Datetime string `json:"datetime"`
	Note     string `json:"note"`
}

func (req *appointmentRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	req.Datetime = strings.TrimSpace(req.Datetime)
	if req.Title == "" {
		return "title is required"
	}
	if _, err := reminder.ParseInstant(req.Datetime, time.Local); err != nil {
		return "datetime must be a date and time such as 2024-05-01T10:00"
	}
	return ""
}

// List handles GET /api/appointments
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.store.List()
	if err != nil {
		h.logger.Error("list appointments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if appts == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

// Create handles POST /api/appointments
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	appt, err := h.store.Create(req.Title, req.Datetime, req.Note)
	if err != nil {
		h.logger.Error("create appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}

	h.broadcast("created", appt.ID)
	writeJSON(w, http.StatusCreated, appt)
}

// Update handles PUT /api/appointments/{id}
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	appt, err := h.store.Update(id, req.Title, req.Datetime, req.Note)
	if err != nil {
		h.logger.Error("update appointment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}
	if appt == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	h.broadcast("updated", id)
	writeJSON(w, http.StatusOK, appt)
}

// Delete handles DELETE /api/appointments/{id}
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get appointment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get appointment")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete appointment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete appointment")
		return
	}

	h.broadcast("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
