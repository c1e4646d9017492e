package handlers

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/services"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/ws"

	"github.com/gin-gonic/gin"
)

// pollLocks hands out one mutex per poll. Each vote mutation and its
// broadcast run under the poll's mutex, so broadcasts for a poll leave in
// commit order and a stale aggregate can never follow a newer one.
type pollLocks struct {
	mu sync.Mutex
	m  map[uint]*sync.Mutex
}

func newPollLocks() *pollLocks {
	return &pollLocks{m: make(map[uint]*sync.Mutex)}
}

func (l *pollLocks) get(pollID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m[pollID] == nil {
		l.m[pollID] = &sync.Mutex{}
	}
	return l.m[pollID]
}

// VoteHandler is the mutation surface of the vote ledger. The hub is an
// explicit dependency: every successful mutation pushes the fresh aggregate
// to the affected poll's room, regardless of which connection (if any)
// caused it.
type VoteHandler struct {
	voteService *services.VoteService
	hub         *ws.Hub
	locks       *pollLocks
}

func NewVoteHandler(voteService *services.VoteService, hub *ws.Hub) *VoteHandler {
	return &VoteHandler{voteService: voteService, hub: hub, locks: newPollLocks()}
}

type CastVoteRequest struct {
	PollOptionID uint `json:"pollOptionId" binding:"required" example:"1"`
}

// CastVote godoc
// @Summary      Cast a vote
// @Description  Vote on a poll option; at most one vote per user per option. Broadcasts the refreshed aggregate to the poll's room.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CastVoteRequest true "Vote data"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/votes [post]
func (h *VoteHandler) CastVote(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	pollID, err := h.voteService.PollIDForOption(req.PollOptionID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Commit and fan-out as one unit under the poll's mutex. Handlers run
	// on concurrent goroutines; without this, two casts could commit in
	// one order and broadcast in the other, leaving every subscriber on
	// the stale aggregate.
	mu := h.locks.get(pollID)
	mu.Lock()
	vote, results, err := h.voteService.CastVote(userID, req.PollOptionID)
	if err != nil {
		mu.Unlock()
		respondError(c, err)
		return
	}
	h.hub.Broadcast(results.PollID, ws.WSMessage{Type: ws.EventPollUpdated, Data: results})
	mu.Unlock()

	user, _ := c.Get("user")
	c.JSON(http.StatusCreated, gin.H{
		"message": "vote cast successfully",
		"vote": gin.H{
			"id":        vote.ID,
			"createdAt": vote.CreatedAt,
			"user":      user,
			"pollOption": gin.H{
				"id":     vote.Option.ID,
				"text":   vote.Option.Text,
				"pollId": vote.Option.PollID,
			},
		},
		"pollResults": results,
	})
}

// RemoveVote godoc
// @Summary      Remove a vote
// @Description  Delete one of the caller's own votes. Broadcasts the refreshed aggregate to the poll's room.
// @Tags         votes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Vote ID"
// @Success      200 {object} map[string]interface{}
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/votes/{id} [delete]
func (h *VoteHandler) RemoveVote(c *gin.Context) {
	userID := c.GetUint("user_id")
	voteID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vote id"})
		return
	}

	pollID, err := h.voteService.PollIDForVote(uint(voteID))
	if err != nil {
		respondError(c, err)
		return
	}

	mu := h.locks.get(pollID)
	mu.Lock()
	results, err := h.voteService.RemoveVote(userID, uint(voteID))
	if err != nil {
		mu.Unlock()
		respondError(c, err)
		return
	}
	h.hub.Broadcast(results.PollID, ws.WSMessage{Type: ws.EventPollUpdated, Data: results})
	mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":     "vote removed successfully",
		"pollResults": results,
	})
}

// ListMyVotes godoc
// @Summary      List own votes
// @Description  List the caller's votes with poll context, newest first
// @Tags         votes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]interface{}
// @Failure      401 {object} ErrorResponse
// @Router       /api/votes/mine [get]
func (h *VoteHandler) ListMyVotes(c *gin.Context) {
	userID := c.GetUint("user_id")

	votes, err := h.voteService.ListUserVotes(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	formatted := make([]gin.H, 0, len(votes))
	for _, vote := range votes {
		formatted = append(formatted, gin.H{
			"id":        vote.ID,
			"createdAt": vote.CreatedAt,
			"pollOption": gin.H{
				"id":   vote.Option.ID,
				"text": vote.Option.Text,
			},
			"poll": gin.H{
				"id":       vote.Option.Poll.ID,
				"question": vote.Option.Poll.Question,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"votes":      formatted,
		"totalVotes": len(votes),
	})
}

// ListPollVotes godoc
// @Summary      List votes for a poll
// @Description  List every vote on a poll with voter identities; poll creator only
// @Tags         votes
// @Produce      json
// @Security     BearerAuth
// @Param        pollId path int true "Poll ID"
// @Success      200 {object} map[string]interface{}
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/votes/poll/{pollId} [get]
func (h *VoteHandler) ListPollVotes(c *gin.Context) {
	userID := c.GetUint("user_id")
	pollID, err := strconv.ParseUint(c.Param("pollId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid poll id"})
		return
	}

	poll, votes, err := h.voteService.ListPollVotes(uint(pollID), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	formatted := make([]gin.H, 0, len(votes))
	for _, vote := range votes {
		formatted = append(formatted, gin.H{
			"id":        vote.ID,
			"createdAt": vote.CreatedAt,
			"user":      vote.User.Info(),
			"pollOption": gin.H{
				"id":   vote.Option.ID,
				"text": vote.Option.Text,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"poll": gin.H{
			"id":       poll.ID,
			"question": poll.Question,
		},
		"votes":      formatted,
		"totalVotes": len(votes),
	})
}
