package services

import (
	"errors"
	"math"
	"time"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/apperrors"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// OptionResult is one option's share of a poll aggregate. Field names match
// the socket wire format.
type OptionResult struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	VoteCount int64  `json:"voteCount"`
}

// PollResults is the canonical aggregate for a poll: per-option counts plus
// the total. Derived on demand, never stored.
type PollResults struct {
	PollID     uint           `json:"pollId"`
	Question   string         `json:"question"`
	Options    []OptionResult `json:"options"`
	TotalVotes int64          `json:"totalVotes"`
}

type OptionStat struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	VoteCount  int64  `json:"voteCount"`
	Percentage int    `json:"percentage"`
}

// PollStats extends the aggregate with per-option percentages and poll
// metadata. Each percentage is rounded independently from the same total,
// so they need not sum to exactly 100.
type PollStats struct {
	PollID       uint         `json:"pollId"`
	Question     string       `json:"question"`
	TotalOptions int          `json:"totalOptions"`
	TotalVotes   int64        `json:"totalVotes"`
	Options      []OptionStat `json:"options"`
	IsPublished  bool         `json:"isPublished"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type ResultsService struct {
	db *gorm.DB
}

func NewResultsService(db *gorm.DB) *ResultsService {
	return &ResultsService{db: db}
}

func (s *ResultsService) PollResults(pollID uint) (*PollResults, error) {
	return computeResults(s.db, pollID)
}

// PollStats computes the extended aggregate. Visibility mirrors room join:
// unpublished polls are readable only by their creator.
func (s *ResultsService) PollStats(pollID, viewerID uint) (*PollStats, error) {
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

	counts, err := voteCounts(s.db, poll.Options)
	if err != nil {
		return nil, err
	}
	total := lo.Sum(lo.Values(counts))

	stats := &PollStats{
		PollID:       poll.ID,
		Question:     poll.Question,
		TotalOptions: len(poll.Options),
		TotalVotes:   total,
		Options: lo.Map(poll.Options, func(opt models.Option, _ int) OptionStat {
			return OptionStat{
				ID:         opt.ID,
				Text:       opt.Text,
				VoteCount:  counts[opt.ID],
				Percentage: percentage(counts[opt.ID], total),
			}
		}),
		IsPublished: poll.IsPublished,
		CreatedAt:   poll.CreatedAt,
		UpdatedAt:   poll.UpdatedAt,
	}
	return stats, nil
}

// computeResults builds the aggregate using the given handle, which may be
// an open transaction: the vote ledger calls it with its own tx so the
// returned counts are consistent with the mutation that just committed.
func computeResults(db *gorm.DB, pollID uint) (*PollResults, error) {
	var poll models.Poll
	if err := db.Preload("Options").First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("poll not found")
		}
		return nil, err
	}

	counts, err := voteCounts(db, poll.Options)
	if err != nil {
		return nil, err
	}

	results := &PollResults{
		PollID:   poll.ID,
		Question: poll.Question,
		Options: lo.Map(poll.Options, func(opt models.Option, _ int) OptionResult {
			return OptionResult{ID: opt.ID, Text: opt.Text, VoteCount: counts[opt.ID]}
		}),
		TotalVotes: lo.Sum(lo.Values(counts)),
	}
	return results, nil
}

func voteCounts(db *gorm.DB, options []models.Option) (map[uint]int64, error) {
	if len(options) == 0 {
		return map[uint]int64{}, nil
	}

	optionIDs := lo.Map(options, func(opt models.Option, _ int) uint { return opt.ID })

	var rows []struct {
		OptionID uint
		Count    int64
	}
	err := db.Model(&models.Vote{}).
		Select("option_id, count(*) as count").
		Where("option_id IN ?", optionIDs).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(options))
	for _, row := range rows {
		counts[row.OptionID] = row.Count
	}
	return counts, nil
}

func percentage(count, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
