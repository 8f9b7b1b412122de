package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"meterflow/internal/cache"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is delegated to the CORS layer.
		return true
	},
}

// Events handles GET /api/v1/events: a websocket pushing one JSON frame
// per cache update, so dashboards recompute on notification instead of
// polling the views.
func (h *Handler) Events(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	updates := make(chan cache.Update, 64)
	sub := h.cache.Subscribe("", "", func(u cache.Update) {
		// Drop rather than block a slow consumer; the next update
		// carries the full post-merge count anyway.
		select {
		case updates <- u:
		default:
		}
	})
	defer h.cache.Unsubscribe(sub)

	// Reader loop only notices the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case u := <-updates:
			if err := conn.WriteJSON(u); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Printf("events: write: %v", err)
				}
				return
			}
		}
	}
}
