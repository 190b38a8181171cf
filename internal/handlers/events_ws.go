package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/cleersplit-backend/internal/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 45 * time.Second
)

var eventsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// EventsWebSocket streams bus events to the client. The optional "topics"
// query parameter (comma separated) narrows the stream.
func (h *Handler) EventsWebSocket(w http.ResponseWriter, r *http.Request) {
	topics := parseTopics(r.URL.Query().Get("topics"))
	for _, t := range topics {
		if !events.ValidTopic(t) {
			writeError(w, http.StatusBadRequest, "unknown topic: "+t)
			return
		}
	}

	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe(topics...)
	defer sub.Close()

	logger := h.logger.With(zap.String("subscription_id", sub.ID.String()))
	logger.Debug("event stream opened", zap.Strings("topics", topics))

	// Reader: only control frames are expected; a read error means the client left.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(4 * 1024)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			logger.Debug("event stream closed by client", zap.Uint64("dropped", sub.Dropped()))
			return
		case evt, ok := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				logger.Debug("event stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func parseTopics(raw string) []string {
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
