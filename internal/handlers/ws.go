package handlers

import (
	"log"
	"net/http"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	events *ws.EventHandler
}

func NewWSHandler(events *ws.EventHandler) *WSHandler {
	return &WSHandler{events: events}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket godoc
// @Summary      WebSocket connection for live poll updates
// @Description  Connect via WebSocket, then send authenticate/joinPoll/leavePoll/getPollStats events
// @Tags         websocket
// @Router       /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.events.Serve(conn)
}
