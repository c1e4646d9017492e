package services

import (
	"errors"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/apperrors"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/models"

	"gorm.io/gorm"
)

// VoteService is the ledger for vote mutations. Every cast/remove runs in a
// single transaction with the aggregate recompute, so the returned results
// always reflect exactly the state the mutation committed. The storage-level
// unique index on (user_id, option_id) is the authoritative duplicate check;
// the application-level lookup only exists to produce a friendly message.
type VoteService struct {
	db           *gorm.DB
	singleChoice bool
}

func NewVoteService(db *gorm.DB, singleChoice bool) *VoteService {
	return &VoteService{db: db, singleChoice: singleChoice}
}

// CastVote records a vote by userID on optionID and returns the stored vote
// together with the post-mutation aggregate for the option's poll.
func (s *VoteService) CastVote(userID, optionID uint) (*models.Vote, *PollResults, error) {
	var vote models.Vote
	var results *PollResults

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var option models.Option
		if err := tx.Preload("Poll").First(&option, optionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("poll option not found")
			}
			return err
		}

		if !option.Poll.IsPublished {
			return apperrors.Forbidden("cannot vote on unpublished poll")
		}

		var existing models.Vote
		err := tx.Where("user_id = ? AND option_id = ?", userID, optionID).First(&existing).Error
		if err == nil {
			return apperrors.Conflict("you have already voted on this option")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if s.singleChoice {
			var count int64
			err := tx.Model(&models.Vote{}).
				Joins("JOIN options ON options.id = votes.option_id").
				Where("votes.user_id = ? AND options.poll_id = ?", userID, option.PollID).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return apperrors.Conflict("you have already voted in this poll")
			}
		}

		vote = models.Vote{UserID: userID, OptionID: optionID}
		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict("you have already voted on this option")
			}
			return err
		}
		vote.Option = option

		results, err = computeResults(tx, option.PollID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &vote, results, nil
}

// PollIDForOption resolves which poll an option belongs to.
func (s *VoteService) PollIDForOption(optionID uint) (uint, error) {
	var option models.Option
	if err := s.db.Select("id", "poll_id").First(&option, optionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.NotFound("poll option not found")
		}
		return 0, err
	}
	return option.PollID, nil
}

// PollIDForVote resolves which poll a vote was cast in.
func (s *VoteService) PollIDForVote(voteID uint) (uint, error) {
	var vote models.Vote
	if err := s.db.Preload("Option").First(&vote, voteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.NotFound("vote not found")
		}
		return 0, err
	}
	return vote.Option.PollID, nil
}

// RemoveVote deletes voteID if it belongs to userID and returns the
// post-mutation aggregate for the affected poll.
func (s *VoteService) RemoveVote(userID, voteID uint) (*PollResults, error) {
	var results *PollResults

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var vote models.Vote
		if err := tx.Preload("Option").First(&vote, voteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("vote not found")
			}
			return err
		}

		if vote.UserID != userID {
			return apperrors.Forbidden("not authorized to remove this vote")
		}

		if err := tx.Delete(&models.Vote{}, voteID).Error; err != nil {
			return err
		}

		var err error
		results, err = computeResults(tx, vote.Option.PollID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListUserVotes returns userID's votes, newest first, with option and poll
// context preloaded.
func (s *VoteService) ListUserVotes(userID uint) ([]models.Vote, error) {
	var votes []models.Vote
	err := s.db.Preload("Option").Preload("Option.Poll").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&votes).Error
	return votes, err
}

// ListPollVotes returns every vote on pollID with voter identities; only
// the poll's creator may call it.
func (s *VoteService) ListPollVotes(pollID, requesterID uint) (*models.Poll, []models.Vote, error) {
	var poll models.Poll
	if err := s.db.First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("poll not found")
		}
		return nil, nil, err
	}
	if poll.CreatorID != requesterID {
		return nil, nil, apperrors.Forbidden("not authorized to view votes for this poll")
	}

	var votes []models.Vote
	err := s.db.Preload("User").Preload("Option").
		Joins("JOIN options ON options.id = votes.option_id").
		Where("options.poll_id = ?", pollID).
		Order("votes.created_at DESC").
		Find(&votes).Error
	if err != nil {
		return nil, nil, err
	}
	return &poll, votes, nil
}
