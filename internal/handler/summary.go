package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/mom/internal/store"
)

type SummaryHandler struct {
	archives *store.ArchiveStore
	logger   *slog.Logger
}

func NewSummaryHandler(as *store.ArchiveStore, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{archives: as, logger: logger}
}

// Get handles GET /api/summary with the dashboard counts.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	sum, err := h.archives.Summary()
	if err != nil {
		h.logger.Error("summarise records", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count records")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
