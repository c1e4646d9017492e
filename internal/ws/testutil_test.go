package ws

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/database"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/models"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/services"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type testEnv struct {
	db      *gorm.DB
	hub     *Hub
	handler *EventHandler
	auth    *services.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	hub := NewHub()
	auth := services.NewAuthService(db, testSecret)
	handler := NewEventHandler(hub, auth, services.NewPollService(db), services.NewResultsService(db))
	return &testEnv{db: db, hub: hub, handler: handler, auth: auth}
}

// newTestClient builds a session with no transport; outbound messages pile up
// in the send queue where tests read them back.
func newTestClient(hub *Hub) *Client {
	return newClient(hub, nil)
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestPoll(t *testing.T, db *gorm.DB, creatorID uint, published bool, options ...string) *models.Poll {
	t.Helper()

	poll := models.Poll{
		Question:    "What should we have for lunch?",
		IsPublished: published,
		CreatorID:   creatorID,
	}
	for _, text := range options {
		poll.Options = append(poll.Options, models.Option{Text: text})
	}
	require.NoError(t, db.Create(&poll).Error)
	return &poll
}

type outMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// recv pops the next queued outbound message, failing the test if the queue
// is empty.
func recv(t *testing.T, c *Client) outMessage {
	t.Helper()

	select {
	case data := <-c.send:
		var msg outMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	default:
		t.Fatal("no message queued")
		return outMessage{}
	}
}

func recvErrorText(t *testing.T, c *Client, eventType string) string {
	t.Helper()

	msg := recv(t, c)
	require.Equal(t, eventType, msg.Type)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	return payload.Error
}

func requireEmpty(t *testing.T, c *Client) {
	t.Helper()

	select {
	case data := <-c.send:
		t.Fatalf("unexpected queued message: %s", data)
	default:
	}
}

func dispatchRaw(e *EventHandler, c *Client, eventType, data string) {
	e.dispatch(c, inboundMessage{Type: eventType, Data: json.RawMessage(data)})
}
