package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/mom/internal/notify"
)

// promptWait bounds how long a permission request holds the HTTP request
// open. The prompt itself stays open after the response.
const promptWait = 8 * time.Second

// PermissionRelay receives the user's answer to a relayed consent prompt.
type PermissionRelay interface {
	Answer(s notify.State) bool
}

type NotificationHandler struct {
	gate   *notify.Gate
	relay  PermissionRelay
	wait   time.Duration
	logger *slog.Logger
}

func NewNotificationHandler(gate *notify.Gate, relay PermissionRelay, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{gate: gate, relay: relay, wait: promptWait, logger: logger}
}

type permissionResponse struct {
	State     notify.State `json:"state"`
	Supported bool         `json:"supported"`
	Pending   bool         `json:"pending,omitempty"`
}

func (h *NotificationHandler) current() permissionResponse {
	return permissionResponse{State: h.gate.CurrentState(), Supported: h.gate.CheckSupport()}
}

// GetPermission handles GET /api/notifications/permission
func (h *NotificationHandler) GetPermission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.current())
}

// RequestPermission handles POST /api/notifications/permission
func (h *NotificationHandler) RequestPermission(w http.ResponseWriter, r *http.Request) {
	h.await(w, r, h.gate.RequestPermission)
}

// RetryPermission handles POST /api/notifications/permission/retry
func (h *NotificationHandler) RetryPermission(w http.ResponseWriter, r *http.Request) {
	h.await(w, r, h.gate.RequestAgain)
}

// DenyPermission handles POST /api/notifications/permission/deny. The
// browser calls it when the user dismisses or blocks the prompt.
func (h *NotificationHandler) DenyPermission(w http.ResponseWriter, r *http.Request) {
	h.resolve(notify.StateDenied)
	writeJSON(w, http.StatusOK, h.current())
}

func (h *NotificationHandler) resolve(s notify.State) {
	if h.relay != nil {
		h.relay.Answer(s)
	}
	h.gate.Resolve(s)
}

func (h *NotificationHandler) await(w http.ResponseWriter, r *http.Request, ask func(context.Context) (notify.State, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.wait)
	defer cancel()

	s, err := ask(ctx)
	switch {
	case errors.Is(err, notify.ErrUnsupported):
		writeJSON(w, http.StatusOK, permissionResponse{State: notify.StateUnsupported})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusAccepted, permissionResponse{State: s, Supported: true, Pending: true})
	case err != nil:
		h.logger.Warn("request notification permission", "error", err)
		writeError(w, http.StatusBadGateway, "permission prompt failed")
	default:
		writeJSON(w, http.StatusOK, permissionResponse{State: s, Supported: true})
	}
}
