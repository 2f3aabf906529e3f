package server

import (
	"io"
	"net/http"
	"time"

	"github.com/emberline/stockroom/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	eventPresence  = "presence"
	eventHeartbeat = "heartbeat"
	eventSource    = "stockroom"
)

type presencePayload struct {
	Kind      string `json:"kind"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	Timestamp string `json:"timestamp"`
}

type heartbeatPayload struct {
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// handlePresenceStream pushes sign-in and sign-out events as server-sent
// events until the client goes away.
func (h *httpHandler) handlePresenceStream(c *gin.Context) {
	stream, cleanup := h.presence.Subscribe(c.Request.Context())
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.SSEvent(eventHeartbeat, heartbeatPayload{Source: eventSource, Timestamp: time.Now().UTC().Format(time.RFC3339)})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(io.Writer) bool {
		select {
		case event, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(eventPresence, presencePayload{
				Kind:      event.Kind,
				UserID:    event.User.ID,
				Name:      event.User.Name,
				Label:     auth.PresenceLabel(event.User, event.Kind == auth.PresenceSignedIn),
				Timestamp: event.Timestamp.Format(time.RFC3339),
			})
			return true
		case now := <-ticker.C:
			c.SSEvent(eventHeartbeat, heartbeatPayload{Source: eventSource, Timestamp: now.UTC().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
