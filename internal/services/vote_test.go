package services

import (
	"testing"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/apperrors"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCastVote(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db, false)

	creator := createTestUser(t, db, "creator")
	voter := createTestUser(t, db, "voter")
	poll := createTestPoll(t, db, creator.ID, true, "Pizza", "Sushi")

	vote, results, err := svc.CastVote(voter.ID, poll.Options[0].ID)
	require.NoError(t, err)

	assert.Equal(t, voter.ID, vote.UserID)
	assert.Equal(t, poll.Options[0].ID, vote.OptionID)

	// The returned aggregate already reflects the mutation.
	assert.Equal(t, poll.ID, results.PollID)
	assert.Equal(t, int64(1), results.TotalVotes)
	assert.Equal(t, int64(1), results.Options[0].VoteCount)
	assert.Equal(t, int64(0), results.Options[1].VoteCount)
}

func TestCastVoteDuplicate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db, false)

	creator := createTestUser(t, db, "creator")
	voter := createTestUser(t, db, "voter")
	poll := createTestPoll(t, db, creator.ID, true, "Pizza", "Sushi")

	_, _, err := svc.CastVote(voter.ID, poll.Options[0].ID)
	require.NoError(t, err)

	_, _, err = svc.CastVote(voter.ID, poll.Options[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Exactly one vote stored.
	var count int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("user_id = ? AND option_id = ?", voter.ID, poll.Options[0].ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCastVoteMultipleOptionsSamePoll(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db, false)

	creator := createTestUser(t, db, "creator")
	voter := createTestUser(t, db, "voter")
	poll := createTestPoll(t, db, creator.ID, true, "Pizza", "Sushi")

	// Default mode: uniqueness is per (user, option), so a second option
	// on the same poll is allowed.
	_, _, err := svc.CastVote(voter.ID, poll.Options[0].ID)
	require.NoError(t, err)
	_, results, err := svc.CastVote(voter.ID, poll.Options[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), results.TotalVotes)
}

func TestCastVoteSingleChoiceMode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db, true)

	creator := createTestUser(t, db, "creator")
	voter := createTestUser(t, db, "voter")
	poll := createTestPoll(t, db, creator.ID, true, "Pizza", "Sushi")

	_, _, err := svc.CastVote(voter.ID, poll.Options[0].ID)
	require.NoError(t, err)

	_, _, err = svc.CastVote(voter.ID, poll.Options[1].ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCastVoteUnpublishedPoll(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db, false)

	creator := createTestUser(t, db, "creator")
	poll := createTestPoll(t, db, creator.ID, false, "Pizza", "Sushi")

	// Unpublished polls reject votes from everyone, creator included.
	_, _, err := svc.CastVote(creator.ID, poll.Options[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCastVoteOptionNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db, false)

	voter := createTestUser(t, db, "voter")

	_, _, err := svc.CastVote(voter.ID, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVoteUniquenessEnforcedByStorage(t *testing.T) {
	db := setupTestDB(t)

	creator := createTestUser(t, db, "creator")
	voter := createTestUser(t, db, "voter")
	poll := createTestPoll(t, db, creator.ID, true, "Pizza", "Sushi")

	// Bypass the service's existence check: the unique index alone must
	// reject the second insert, closing the check-then-insert race.
	require.NoError(t, db.Create(&models.Vote{UserID: voter.ID, OptionID: poll.Options[0].ID}).Error)
	err := db.Create(&models.Vote{UserID: voter.ID, OptionID: poll.Options[0].ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestRemoveVote(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db, false)

	creator := createTestUser(t, db, "creator")
	voter := createTestUser(t, db, "voter")
	poll := createTestPoll(t, db, creator.ID, true, "Pizza", "Sushi")

	vote, _, err := svc.CastVote(voter.ID, poll.Options[0].ID)
	require.NoError(t, err)

	results, err := svc.RemoveVote(voter.ID, vote.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), results.TotalVotes)

	_, err = svc.RemoveVote(voter.ID, vote.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRemoveVoteNotOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db, false)

	creator := createTestUser(t, db, "creator")
	voter := createTestUser(t, db, "voter")
	other := createTestUser(t, db, "other")
	poll := createTestPoll(t, db, creator.ID, true, "Pizza", "Sushi")

	vote, _, err := svc.CastVote(voter.ID, poll.Options[0].ID)
	require.NoError(t, err)

	_, err = svc.RemoveVote(other.ID, vote.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestListUserVotes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db, false)

	creator := createTestUser(t, db, "creator")
	voter := createTestUser(t, db, "voter")
	poll := createTestPoll(t, db, creator.ID, true, "Pizza", "Sushi")

	_, _, err := svc.CastVote(voter.ID, poll.Options[0].ID)
	require.NoError(t, err)

	votes, err := svc.ListUserVotes(voter.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "Pizza", votes[0].Option.Text)
	assert.Equal(t, poll.Question, votes[0].Option.Poll.Question)
}

func TestListPollVotes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewVoteService(db, false)

	creator := createTestUser(t, db, "creator")
	voter := createTestUser(t, db, "voter")
	poll := createTestPoll(t, db, creator.ID, true, "Pizza", "Sushi")

	_, _, err := svc.CastVote(voter.ID, poll.Options[1].ID)
	require.NoError(t, err)

	_, votes, err := svc.ListPollVotes(poll.ID, creator.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, voter.ID, votes[0].UserID)

	_, _, err = svc.ListPollVotes(poll.ID, voter.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
