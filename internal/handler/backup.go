package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/mom/internal/backup"
	"github.com/dukerupert/mom/internal/model"
	"github.com/dukerupert/mom/internal/websocket"
)

// maxImportSize caps uploaded archives.
const maxImportSize = 10 << 20

type BackupHandler struct {
	manager *backup.Manager
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, hub *websocket.Hub, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, hub: hub, logger: logger}
}

func (h *BackupHandler) broadcast(action string, extra map[string]any) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityData, action, "", extra))
	}
}

// Export handles GET /api/backup/export. The archive is sealed when the
// X-Backup-Passphrase header is set.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	a, err := h.manager.Export()
	if err != nil {
		h.logger.Error("export archive", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export data")
		return
	}

	pass := passphrase(r)
	data, err := backup.Encode(a, pass)
	if err != nil {
		h.logger.Error("encode archive", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export data")
		return
	}

	contentType := "application/json"
	if pass != "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.Filename(a.ExportedAt, pass != "")))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import handles POST /api/backup/import. The request body is the
// exported document; all existing records are replaced.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "backup too large")
		return
	}

	a, err := h.manager.Import(data, passphrase(r))
	if err != nil {
		h.writeImportError(w, err)
		return
	}

	h.broadcast("replaced", nil)
	writeJSON(w, http.StatusOK, importCounts(a))
}

func (h *BackupHandler) writeImportError(w http.ResponseWriter, err error) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, backup.ErrEmptyArchive):
		writeError(w, http.StatusBadRequest, "no data found")
	case errors.Is(err, backup.ErrDecrypt):
		writeError(w, http.StatusBadRequest, "wrong passphrase or corrupted backup")
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		writeError(w, http.StatusBadRequest, "failed to read file")
	default:
		h.logger.Error("import archive", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to import data")
	}
}

// ClearAll handles DELETE /api/data
func (h *BackupHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Clear(); err != nil {
		h.logger.Error("clear data", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear data")
		return
	}

	h.broadcast("cleared", nil)
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/backup/status
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// ListOffsite handles GET /api/backup/offsite
func (h *BackupHandler) ListOffsite(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	backups, err := h.manager.List(limit)
	if err != nil {
		h.logger.Error("list offsite backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if backups == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

// Offsite handles POST /api/backup/offsite
func (h *BackupHandler) Offsite(w http.ResponseWriter, r *http.Request) {
	b, err := h.manager.Offsite(r.Context(), passphrase(r))
	if errors.Is(err, backup.ErrOffsiteDisabled) {
		writeError(w, http.StatusServiceUnavailable, "offsite backup not configured")
		return
	}
	if err != nil {
		h.logger.Error("offsite backup", "error", err)
		writeError(w, http.StatusBadGateway, "offsite backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// RestoreOffsite handles POST /api/backup/offsite/{id}/restore
func (h *BackupHandler) RestoreOffsite(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.manager.RestoreOffsite(r.Context(), id, passphrase(r))
	switch {
	case errors.Is(err, backup.ErrOffsiteDisabled):
		writeError(w, http.StatusServiceUnavailable, "offsite backup not configured")
		return
	case errors.Is(err, backup.ErrNotFound):
		writeError(w, http.StatusNotFound, "backup not found")
		return
	case err != nil:
		h.writeImportError(w, err)
		return
	}

	h.broadcast("replaced", map[string]any{"backup_id": id})
	writeJSON(w, http.StatusOK, importCounts(a))
}

func importCounts(a *model.Archive) map[string]int {
	return map[string]int{
		"medications":  len(a.Medications),
		"appointments": len(a.Appointments),
		"shopping":     len(a.Shopping),
		"recipes":      len(a.Recipes),
		"photos":       len(a.Photos),
	}
}
