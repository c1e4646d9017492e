package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/apperrors"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/models"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const sendQueueSize = 64

// Client is one live connection session: the transport connection, an
// optional authenticated identity, and the set of poll rooms it joined.
// Identity is written only by the session's own read loop; room membership
// is guarded by the hub's lock.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	user  *models.UserInfo
	rooms map[uint]bool
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:    uuid.NewString(),
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendQueueSize),
		rooms: make(map[uint]bool),
	}
}

// userID returns the authenticated user ID, or 0 for anonymous sessions.
func (c *Client) userID() uint {
	if c.user == nil {
		return 0
	}
	return c.user.ID
}

func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("ws: client %s send queue full, dropping message", c.id)
	}
}

func (c *Client) sendMessage(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}
	c.enqueue(data)
}

func (c *Client) sendError(event, message string) {
	c.sendMessage(WSMessage{Type: event, Data: errorPayload{Error: message}})
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: write error: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// EventHandler owns the socket side of the system: it runs each connection
// session's event loop and wires the authenticate/join/leave/stats events to
// the same services the HTTP surface uses.
type EventHandler struct {
	hub     *Hub
	auth    *services.AuthService
	polls   *services.PollService
	results *services.ResultsService
}

func NewEventHandler(hub *Hub, auth *services.AuthService, polls *services.PollService, results *services.ResultsService) *EventHandler {
	return &EventHandler{hub: hub, auth: auth, polls: polls, results: results}
}

// Serve runs the session for an upgraded connection until the transport
// closes, then tears the session down, which implicitly leaves every room.
func (e *EventHandler) Serve(conn *websocket.Conn) {
	c := newClient(e.hub, conn)
	log.Printf("ws: client %s connected", c.id)

	go c.writePump()
	defer e.hub.Disconnect(c)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError(EventError, "invalid message format")
			continue
		}
		e.dispatch(c, msg)
	}
}

// dispatch handles one inbound event. Expected failures are surfaced as
// error/authError events; nothing here ever closes the connection, so the
// session stays usable after a failed event.
func (e *EventHandler) dispatch(c *Client, msg inboundMessage) {
	switch msg.Type {
	case EventAuthenticate:
		var payload authenticatePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.sendError(EventAuthError, "invalid authenticate payload")
			return
		}
		e.handleAuthenticate(c, payload.Token)

	case EventJoinPoll, EventLeavePoll, EventGetPollStats:
		var payload pollPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.PollID == 0 {
			c.sendError(EventError, "poll ID is required")
			return
		}
		switch msg.Type {
		case EventJoinPoll:
			e.handleJoinPoll(c, payload.PollID)
		case EventLeavePoll:
			e.handleLeavePoll(c, payload.PollID)
		case EventGetPollStats:
			e.handleGetPollStats(c, payload.PollID)
		}

	default:
		c.sendError(EventError, fmt.Sprintf("unknown event type: %s", msg.Type))
	}
}

func (e *EventHandler) handleAuthenticate(c *Client, token string) {
	user, err := e.auth.VerifyToken(token)
	if err != nil {
		if apperrors.IsAuthError(err) {
			c.sendError(EventAuthError, err.Error())
		} else {
			log.Printf("ws: authenticate error: %v", err)
			c.sendError(EventAuthError, "authentication failed")
		}
		return
	}

	// One-way transition; a session never loses its identity.
	c.user = &user
	c.sendMessage(WSMessage{Type: EventAuthenticated, Data: authenticatedPayload{
		User:    user,
		Message: "socket authenticated successfully",
	}})
	log.Printf("ws: client %s authenticated as user %d", c.id, user.ID)
}

func (e *EventHandler) handleJoinPoll(c *Client, pollID uint) {
	poll, err := e.polls.PollForViewer(pollID, c.userID())
	if err != nil {
		e.replyError(c, err, "failed to join poll")
		return
	}

	results, err := e.results.PollResults(pollID)
	if err != nil {
		e.replyError(c, err, "failed to join poll")
		return
	}

	e.hub.Join(pollID, c)

	c.sendMessage(WSMessage{Type: EventJoinedPoll, Data: joinedPollPayload{
		Message: fmt.Sprintf("Joined poll: %s", poll.Question),
		Poll: pollSnapshot{
			PollResults: *results,
			IsPublished: poll.IsPublished,
			CreatedAt:   poll.CreatedAt,
		},
	}})

	e.hub.BroadcastExcept(pollID, c, WSMessage{Type: EventUserJoined, Data: userNoticePayload{
		Message: joinNotice(c.user, "joined"),
	}})
}

func (e *EventHandler) handleLeavePoll(c *Client, pollID uint) {
	e.hub.Leave(pollID, c)

	c.sendMessage(WSMessage{Type: EventLeftPoll, Data: leftPollPayload{
		Message: "Left poll room",
		PollID:  pollID,
	}})

	e.hub.Broadcast(pollID, WSMessage{Type: EventUserLeft, Data: userNoticePayload{
		Message: joinNotice(c.user, "left"),
	}})
}

func (e *EventHandler) handleGetPollStats(c *Client, pollID uint) {
	stats, err := e.results.PollStats(pollID, c.userID())
	if err != nil {
		e.replyError(c, err, "failed to get poll statistics")
		return
	}
	c.sendMessage(WSMessage{Type: EventPollStats, Data: stats})
}

// replyError maps expected failures to their message and everything else to
// a generic error after logging.
func (e *EventHandler) replyError(c *Client, err error, generic string) {
	if errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrForbidden) ||
		errors.Is(err, apperrors.ErrConflict) {
		c.sendError(EventError, err.Error())
		return
	}
	log.Printf("ws: %s: %v", generic, err)
	c.sendError(EventError, generic)
}

func joinNotice(user *models.UserInfo, verb string) string {
	if user != nil {
		return fmt.Sprintf("%s %s the poll", user.Name, verb)
	}
	return fmt.Sprintf("A user %s the poll", verb)
}
