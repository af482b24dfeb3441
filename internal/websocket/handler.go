package websocket

import (
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

// HandlerOptions tunes the upgrade endpoint.
type HandlerOptions struct {
	// OriginPatterns restricts cross-origin sessions. Empty accepts any
	// origin, which suits a household LAN.
	OriginPatterns []string
	// MaxClients caps concurrent sessions; zero means no cap.
	MaxClients int
	// Greeting returns the messages a new session receives first, such as
	// the current notification permission state.
	Greeting func() []Message
}

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients.
func HandleWebSocket(hub *Hub, opts HandlerOptions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if opts.MaxClients > 0 && hub.ClientCount() >= opts.MaxClients {
			logger.Warn("websocket session limit reached", "remote", r.RemoteAddr, "limit", opts.MaxClients)
			http.Error(w, "too many sessions", http.StatusServiceUnavailable)
			return
		}

		// Server read/write timeouts would otherwise carry over to the
		// hijacked connection and cut long-lived sessions.
		rc := http.NewResponseController(w)
		if err := rc.SetReadDeadline(time.Time{}); err != nil {
			logger.Debug("clear read deadline", "error", err)
		}
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			logger.Debug("clear write deadline", "error", err)
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: len(opts.OriginPatterns) == 0,
			OriginPatterns:     opts.OriginPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "remote", r.RemoteAddr, "error", err)
			return
		}

		client := NewClient(hub, conn)
		if opts.Greeting != nil {
			for _, msg := range opts.Greeting() {
				if !client.Queue(msg) {
					logger.Warn("greeting dropped", "type", msg.Type)
				}
			}
		}
		client.Run(r.Context())
	}
}
