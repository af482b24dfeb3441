package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/mom/internal/reminder"
)

type ReminderHandler struct {
	scheduler *reminder.Scheduler
	source    reminder.Source
	logger    *slog.Logger
}

func NewReminderHandler(s *reminder.Scheduler, src reminder.Source, logger *slog.Logger) *ReminderHandler {
	return &ReminderHandler{scheduler: s, source: src, logger: logger}
}

// Due handles GET /api/reminders/due. It reports what would fire right now
// without recording anything, so the live scheduler still delivers.
func (h *ReminderHandler) Due(w http.ResponseWriter, r *http.Request) {
	snap, err := h.source.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("load reminder snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load reminders")
		return
	}

	events := h.scheduler.Preview(h.scheduler.Now(), snap.Medications, snap.Appointments)
	if events == nil {
		events = []reminder.DueEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
