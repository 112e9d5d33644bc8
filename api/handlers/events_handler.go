package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

const (
	keepAliveInterval = 30 * time.Second
	writeTimeout      = 10 * time.Second
)

// EventSource hands out live archive event subscriptions
type EventSource interface {
	Subscribe() (<-chan domain.Event, func())
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsHandler streams archive events to HTTP clients
type EventsHandler struct {
	source    EventSource
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(source EventSource, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		source:    source,
		logger:    logger,
		keepAlive: keepAliveInterval,
	}
}

// matches applies the optional request_id filter
func matches(event domain.Event, requestID string) bool {
	return requestID == "" || event.RequestID == requestID
}

// Stream handles GET /api/v1/events as server-sent events. The event name
// is the event kind and the data is the JSON encoded event.
func (h *EventsHandler) Stream(c *gin.Context) {
	requestID := c.Query("request_id")
	events, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !matches(event, requestID) {
				continue
			}
			c.SSEvent(string(event.Kind), event)
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now()})
			c.Writer.Flush()
		}
	}
}

// WebSocket handles GET /api/v1/events/ws, sending each event as a JSON
// text message.
func (h *EventsHandler) WebSocket(c *gin.Context) {
	requestID := c.Query("request_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	h.logger.Info("WebSocket client connected",
		zap.String("request_id", requestID),
		zap.String("remote_addr", c.Request.RemoteAddr))

	// Reads detect the client going away; incoming messages are ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if !matches(event, requestID) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("Failed to send event", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
