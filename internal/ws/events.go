package ws

import (
	"encoding/json"
	"time"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/models"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/services"
)

// Client-to-server event types.
const (
	EventAuthenticate = "authenticate"
	EventJoinPoll     = "joinPoll"
	EventLeavePoll    = "leavePoll"
	EventGetPollStats = "getPollStats"
)

// Server-to-client event types.
const (
	EventAuthenticated = "authenticated"
	EventAuthError     = "authError"
	EventError         = "error"
	EventJoinedPoll    = "joinedPoll"
	EventUserJoined    = "userJoined"
	EventLeftPoll      = "leftPoll"
	EventUserLeft      = "userLeft"
	EventPollStats     = "pollStats"
	EventPollUpdated   = "pollUpdated"
)

// WSMessage is the wire envelope in both directions.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// inboundMessage defers payload decoding until the event type is known.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type authenticatePayload struct {
	Token string `json:"token"`
}

type pollPayload struct {
	PollID uint `json:"pollId"`
}

type errorPayload struct {
	Error string `json:"error"`
}

type authenticatedPayload struct {
	User    models.UserInfo `json:"user"`
	Message string          `json:"message"`
}

// pollSnapshot is the aggregate plus the metadata a joiner needs to render
// the poll.
type pollSnapshot struct {
	services.PollResults
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

type joinedPollPayload struct {
	Message string       `json:"message"`
	Poll    pollSnapshot `json:"poll"`
}

type userNoticePayload struct {
	Message string `json:"message"`
}

type leftPollPayload struct {
	Message string `json:"message"`
	PollID  uint   `json:"pollId"`
}
