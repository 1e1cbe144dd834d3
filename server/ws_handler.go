package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/minjispace/web-pet/game"
	"github.com/minjispace/web-pet/pkg/feed"
)

const (
	EventTypeConnected = "connected"
	EventTypeState     = "state"
	EventTypeHeartbeat = "heartbeat"
)

// WatchHandler streams session state snapshots to clients over SSE and
// WebSocket. Every reducer dispatch produces one snapshot event.
type WatchHandler struct {
	broadcaster     *feed.Broadcaster
	service         *SessionService
	logger          zerolog.Logger
	heartbeatPeriod time.Duration
	upgrader        websocket.Upgrader
}

// NewWatchHandler creates a watch handler
func NewWatchHandler(broadcaster *feed.Broadcaster, service *SessionService, logger zerolog.Logger) *WatchHandler {
	return &WatchHandler{
		broadcaster:     broadcaster,
		service:         service,
		logger:          logger.With().Str("handler", "watch").Logger(),
		heartbeatPeriod: 30 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// WatchEvent is one frame of the state stream
type WatchEvent struct {
	Type      string                `json:"type"`
	Timestamp int64                 `json:"timestamp"`
	State     *SessionStateResponse `json:"state,omitempty"`
}

func watchEvent(eventType string, st *game.State) WatchEvent {
	ev := WatchEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
	}
	if st != nil {
		resp := stateResponse(*st)
		ev.State = &resp
	}
	return ev
}

// eventSender abstracts the transport so SSE and WebSocket share one loop
type eventSender interface {
	send(ev WatchEvent) error
}

// StreamState streams snapshots over SSE.
// Route: GET /api/session/watch
func (h *WatchHandler) StreamState(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	h.stream(c, &sseSender{writer: c.Writer})
}

// StreamStateWebSocket streams snapshots over WebSocket.
// Route: GET /api/session/watch/ws
func (h *WatchHandler) StreamStateWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}
	defer conn.Close() //nolint:errcheck

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(10 * time.Minute)) //nolint:errcheck
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sender := &wsSender{conn: conn}
	h.streamUntil(c, sender, done)
}

func (h *WatchHandler) stream(c *gin.Context, sender eventSender) {
	h.streamUntil(c, sender, nil)
}

func (h *WatchHandler) streamUntil(c *gin.Context, sender eventSender, done <-chan struct{}) {
	ctx := c.Request.Context()

	snapshots, cancel := h.broadcaster.Listen(ctx)
	defer cancel()

	// Initial frame carries the current snapshot so late joiners do not
	// wait for the next dispatch.
	current := h.service.Snapshot()
	if err := sender.send(watchEvent(EventTypeConnected, &current)); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to send connected event")
		return
	}

	heartbeat := time.NewTicker(h.heartbeatPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case st, ok := <-snapshots:
			if !ok {
				return
			}
			if err := sender.send(watchEvent(EventTypeState, &st)); err != nil {
				h.logger.Debug().Err(err).Msg("Client gone, closing state stream")
				return
			}
		case <-heartbeat.C:
			if err := sender.send(watchEvent(EventTypeHeartbeat, nil)); err != nil {
				return
			}
		}
	}
}

type sseSender struct {
	writer gin.ResponseWriter
}

func (s *sseSender) send(ev WatchEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "data: %s\n\n", data); err != nil {
		return err
	}
	s.writer.Flush()
	return nil
}

type wsSender struct {
	conn *websocket.Conn
}

func (s *wsSender) send(ev WatchEvent) error {
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)) //nolint:errcheck
	return s.conn.WriteJSON(ev)
}
