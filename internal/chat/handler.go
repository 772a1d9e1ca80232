package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (Dev mode)
	},
}

// Handler owns the HTTP surface of the room: the websocket upgrade and the
// liveness endpoint.
type Handler struct {
	hub     *Hub
	logger  *slog.Logger
	started time.Time
}

func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, logger: logger, started: time.Now()}
}

// ServeWs upgrades the request and hands the connection to the hub. The
// client is anonymous until it sends a join event.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	h.hub.Register(newClient(h.hub, conn))
}

// Health reports presence count and process uptime.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"users":  h.hub.PresenceCount(),
		"uptime": time.Since(h.started).Seconds(),
	})
}
