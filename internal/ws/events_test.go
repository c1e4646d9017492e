package ws

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(env.hub)

	user := createTestUser(t, env.db, "alice")
	token, err := env.auth.GenerateToken(user.ID)
	require.NoError(t, err)

	dispatchRaw(env.handler, c, EventAuthenticate, fmt.Sprintf(`{"token":%q}`, token))

	msg := recv(t, c)
	require.Equal(t, EventAuthenticated, msg.Type)

	var payload authenticatedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, user.ID, payload.User.ID)
	assert.Equal(t, "alice", payload.User.Name)
	assert.Equal(t, user.ID, c.userID())
}

func TestAuthenticateFailures(t *testing.T) {
	env := newTestEnv(t)

	t.Run("bad token", func(t *testing.T) {
		c := newTestClient(env.hub)
		dispatchRaw(env.handler, c, EventAuthenticate, `{"token":"garbage"}`)
		assert.Equal(t, "invalid token", recvErrorText(t, c, EventAuthError))
		assert.Zero(t, c.userID())
	})

	t.Run("missing token", func(t *testing.T) {
		c := newTestClient(env.hub)
		dispatchRaw(env.handler, c, EventAuthenticate, `{}`)
		assert.Equal(t, "no token provided", recvErrorText(t, c, EventAuthError))
	})

	t.Run("malformed payload", func(t *testing.T) {
		c := newTestClient(env.hub)
		dispatchRaw(env.handler, c, EventAuthenticate, `[`)
		assert.Equal(t, "invalid authenticate payload", recvErrorText(t, c, EventAuthError))
	})
}

func TestJoinPoll(t *testing.T) {
	env := newTestEnv(t)

	creator := createTestUser(t, env.db, "creator")
	poll := createTestPoll(t, env.db, creator.ID, true, "Pizza", "Sushi")

	existing := newTestClient(env.hub)
	env.hub.Join(poll.ID, existing)

	joiner := newTestClient(env.hub)
	dispatchRaw(env.handler, joiner, EventJoinPoll, fmt.Sprintf(`{"pollId":%d}`, poll.ID))

	msg := recv(t, joiner)
	require.Equal(t, EventJoinedPoll, msg.Type)

	var payload joinedPollPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "Joined poll: "+poll.Question, payload.Message)
	assert.Equal(t, poll.ID, payload.Poll.PollID)
	assert.Len(t, payload.Poll.Options, 2)
	assert.True(t, payload.Poll.IsPublished)

	assert.Equal(t, 2, env.hub.RoomCount(poll.ID))

	// Existing members are notified; the joiner is not told about itself.
	notice := recv(t, existing)
	require.Equal(t, EventUserJoined, notice.Type)
	var noticePayload userNoticePayload
	require.NoError(t, json.Unmarshal(notice.Data, &noticePayload))
	assert.Equal(t, "A user joined the poll", noticePayload.Message)
	requireEmpty(t, joiner)
}

func TestJoinPollAuthenticatedNotice(t *testing.T) {
	env := newTestEnv(t)

	creator := createTestUser(t, env.db, "creator")
	poll := createTestPoll(t, env.db, creator.ID, true, "Pizza", "Sushi")

	existing := newTestClient(env.hub)
	env.hub.Join(poll.ID, existing)

	alice := createTestUser(t, env.db, "alice")
	token, err := env.auth.GenerateToken(alice.ID)
	require.NoError(t, err)

	joiner := newTestClient(env.hub)
	dispatchRaw(env.handler, joiner, EventAuthenticate, fmt.Sprintf(`{"token":%q}`, token))
	recv(t, joiner) // authenticated

	dispatchRaw(env.handler, joiner, EventJoinPoll, fmt.Sprintf(`{"pollId":%d}`, poll.ID))
	recv(t, joiner) // joinedPoll

	notice := recv(t, existing)
	var noticePayload userNoticePayload
	require.NoError(t, json.Unmarshal(notice.Data, &noticePayload))
	assert.Equal(t, "alice joined the poll", noticePayload.Message)
}

func TestJoinPollUnpublished(t *testing.T) {
	env := newTestEnv(t)

	creator := createTestUser(t, env.db, "creator")
	poll := createTestPoll(t, env.db, creator.ID, false, "Pizza", "Sushi")

	anon := newTestClient(env.hub)
	dispatchRaw(env.handler, anon, EventJoinPoll, fmt.Sprintf(`{"pollId":%d}`, poll.ID))
	assert.Equal(t, "poll is not published", recvErrorText(t, anon, EventError))
	assert.Equal(t, 0, env.hub.RoomCount(poll.ID))

	// The creator can join their own draft.
	token, err := env.auth.GenerateToken(creator.ID)
	require.NoError(t, err)

	owner := newTestClient(env.hub)
	dispatchRaw(env.handler, owner, EventAuthenticate, fmt.Sprintf(`{"token":%q}`, token))
	recv(t, owner)

	dispatchRaw(env.handler, owner, EventJoinPoll, fmt.Sprintf(`{"pollId":%d}`, poll.ID))
	msg := recv(t, owner)
	assert.Equal(t, EventJoinedPoll, msg.Type)
	assert.Equal(t, 1, env.hub.RoomCount(poll.ID))
}

func TestJoinPollNotFound(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(env.hub)

	dispatchRaw(env.handler, c, EventJoinPoll, `{"pollId":9999}`)
	assert.Equal(t, "poll not found", recvErrorText(t, c, EventError))
}

func TestJoinPollMissingID(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(env.hub)

	dispatchRaw(env.handler, c, EventJoinPoll, `{}`)
	assert.Equal(t, "poll ID is required", recvErrorText(t, c, EventError))
}

func TestLeavePoll(t *testing.T) {
	env := newTestEnv(t)

	creator := createTestUser(t, env.db, "creator")
	poll := createTestPoll(t, env.db, creator.ID, true, "Pizza", "Sushi")

	stayer := newTestClient(env.hub)
	leaver := newTestClient(env.hub)
	env.hub.Join(poll.ID, stayer)
	env.hub.Join(poll.ID, leaver)

	dispatchRaw(env.handler, leaver, EventLeavePoll, fmt.Sprintf(`{"pollId":%d}`, poll.ID))

	msg := recv(t, leaver)
	require.Equal(t, EventLeftPoll, msg.Type)
	var payload leftPollPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "Left poll room", payload.Message)
	assert.Equal(t, poll.ID, payload.PollID)

	assert.Equal(t, 1, env.hub.RoomCount(poll.ID))

	notice := recv(t, stayer)
	assert.Equal(t, EventUserLeft, notice.Type)
}

func TestGetPollStats(t *testing.T) {
	env := newTestEnv(t)

	creator := createTestUser(t, env.db, "creator")
	poll := createTestPoll(t, env.db, creator.ID, true, "Pizza", "Sushi")

	voter := createTestUser(t, env.db, "voter")
	_, _, err := services.NewVoteService(env.db, false).CastVote(voter.ID, poll.Options[0].ID)
	require.NoError(t, err)

	c := newTestClient(env.hub)
	dispatchRaw(env.handler, c, EventGetPollStats, fmt.Sprintf(`{"pollId":%d}`, poll.ID))

	msg := recv(t, c)
	require.Equal(t, EventPollStats, msg.Type)

	var stats services.PollStats
	require.NoError(t, json.Unmarshal(msg.Data, &stats))
	assert.Equal(t, poll.ID, stats.PollID)
	assert.Equal(t, int64(1), stats.TotalVotes)
	assert.Equal(t, 2, stats.TotalOptions)
	assert.Equal(t, 100, stats.Options[0].Percentage)
	assert.Equal(t, 0, stats.Options[1].Percentage)
}

func TestUnknownEvent(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(env.hub)

	dispatchRaw(env.handler, c, "bogus", `{}`)
	assert.Equal(t, "unknown event type: bogus", recvErrorText(t, c, EventError))
}

// A vote cast over HTTP reaches every room member as a pollUpdated event
// whose aggregate matches what the ledger returned.
func TestVoteBroadcastReachesRoom(t *testing.T) {
	env := newTestEnv(t)

	creator := createTestUser(t, env.db, "creator")
	poll := createTestPoll(t, env.db, creator.ID, true, "Pizza", "Sushi")

	watcher := newTestClient(env.hub)
	dispatchRaw(env.handler, watcher, EventJoinPoll, fmt.Sprintf(`{"pollId":%d}`, poll.ID))
	recv(t, watcher) // joinedPoll

	voter := createTestUser(t, env.db, "voter")
	_, results, err := services.NewVoteService(env.db, false).CastVote(voter.ID, poll.Options[1].ID)
	require.NoError(t, err)
	env.hub.Broadcast(results.PollID, WSMessage{Type: EventPollUpdated, Data: results})

	msg := recv(t, watcher)
	require.Equal(t, EventPollUpdated, msg.Type)

	var payload services.PollResults
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, poll.ID, payload.PollID)
	assert.Equal(t, int64(1), payload.TotalVotes)
	assert.Equal(t, int64(0), payload.Options[0].VoteCount)
	assert.Equal(t, int64(1), payload.Options[1].VoteCount)
}
