package services

import (
	"errors"
	"time"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/apperrors"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/models"

	"gorm.io/gorm"
)

// PollDetail is a poll with its aggregate and creator, as served by the
// polls API.
type PollDetail struct {
	PollResults
	OptionCount int             `json:"optionCount"`
	IsPublished bool            `json:"isPublished"`
	Creator     models.UserInfo `json:"creator"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type PollService struct {
	db *gorm.DB
}

func NewPollService(db *gorm.DB) *PollService {
	return &PollService{db: db}
}

func (s *PollService) CreatePoll(creatorID uint, question string, options []string, isPublished bool) (*models.Poll, error) {
	poll := models.Poll{
		Question:    question,
		IsPublished: isPublished,
		CreatorID:   creatorID,
	}
	for _, text := range options {
		poll.Options = append(poll.Options, models.Option{Text: text})
	}

	if err := s.db.Create(&poll).Error; err != nil {
		return nil, err
	}
	return &poll, nil
}

// ListPolls returns published polls, or all of viewerID's own polls when
// mine is set.
func (s *PollService) ListPolls(viewerID uint, mine bool) ([]PollDetail, error) {
	query := s.db.Preload("Options").Preload("Creator").Order("created_at DESC")
	if mine {
		query = query.Where("creator_id = ?", viewerID)
	} else {
		query = query.Where("is_published = ?", true)
	}

	var polls []models.Poll
	if err := query.Find(&polls).Error; err != nil {
		return nil, err
	}

	details := make([]PollDetail, 0, len(polls))
	for _, poll := range polls {
		detail, err := s.detail(&poll)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

func (s *PollService) GetPoll(pollID, viewerID uint) (*PollDetail, error) {
	var poll models.Poll
	if err := s.db.Preload("Options").Preload("Creator").First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("poll not found")
		}
		return nil, err
	}
	if !poll.VisibleTo(viewerID) {
		return nil, apperrors.Forbidden("poll is not published")
	}
	return s.detail(&poll)
}

// PollForViewer loads a poll and applies the visibility rule: unpublished
// polls exist only for their creator. Shared by the REST read path and the
// socket join path so the two surfaces cannot diverge.
func (s *PollService) PollForViewer(pollID, viewerID uint) (*models.Poll, error) {
	var poll models.Poll
	if err := s.db.Preload("Options").First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("poll not found")
		}
		return nil, err
	}
	if !poll.VisibleTo(viewerID) {
		return nil, apperrors.Forbidden("poll is not published")
	}
	return &poll, nil
}

func (s *PollService) UpdatePoll(pollID, userID uint, question *string, isPublished *bool) (*PollDetail, error) {
	var poll models.Poll
	if err := s.db.First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("poll not found")
		}
		return nil, err
	}
	if poll.CreatorID != userID {
		return nil, apperrors.Forbidden("not authorized to update this poll")
	}

	updates := map[string]interface{}{}
	if question != nil {
		updates["question"] = *question
	}
	if isPublished != nil {
		updates["is_published"] = *isPublished
	}
	if len(updates) > 0 {
		if err := s.db.Model(&poll).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.Preload("Options").Preload("Creator").First(&poll, pollID).Error; err != nil {
		return nil, err
	}
	return s.detail(&poll)
}

func (s *PollService) DeletePoll(pollID, userID uint) error {
	var poll models.Poll
	if err := s.db.First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("poll not found")
		}
		return err
	}
	if poll.CreatorID != userID {
		return apperrors.Forbidden("not authorized to delete this poll")
	}

	// Explicit child deletes; not every driver enforces FK cascades.
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("option_id IN (?)",
			tx.Model(&models.Option{}).Select("id").Where("poll_id = ?", pollID),
		).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id = ?", pollID).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Poll{}, pollID).Error
	})
}

func (s *PollService) detail(poll *models.Poll) (*PollDetail, error) {
	results, err := computeResults(s.db, poll.ID)
	if err != nil {
		return nil, err
	}
	return &PollDetail{
		PollResults: *results,
		OptionCount: len(results.Options),
		IsPublished: poll.IsPublished,
		Creator:     poll.Creator.Info(),
		CreatedAt:   poll.CreatedAt,
		UpdatedAt:   poll.UpdatedAt,
	}, nil
}
