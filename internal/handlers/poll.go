package handlers

import (
	"net/http"
	"strconv"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/services"

	"github.com/gin-gonic/gin"
)

type PollHandler struct {
	pollService *services.PollService
}

func NewPollHandler(pollService *services.PollService) *PollHandler {
	return &PollHandler{pollService: pollService}
}

type CreatePollRequest struct {
	Question    string   `json:"question" binding:"required,min=5,max=500" example:"What should we have for lunch?"`
	Options     []string `json:"options" binding:"required,min=2,max=10,dive,required,min=1,max=200"`
	IsPublished bool     `json:"isPublished"`
}

type UpdatePollRequest struct {
	Question    *string `json:"question" binding:"omitempty,min=5,max=500"`
	IsPublished *bool   `json:"isPublished"`
}

// CreatePoll godoc
// @Summary      Create a poll
// @Description  Create a poll with 2-10 options, optionally published
// @Tags         polls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreatePollRequest true "Poll data"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /api/polls [post]
func (h *PollHandler) CreatePoll(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	poll, err := h.pollService.CreatePoll(userID, req.Question, req.Options, req.IsPublished)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "poll created successfully",
		"poll":    poll,
	})
}

// ListPolls godoc
// @Summary      List polls
// @Description  List published polls with aggregates; ?mine=true lists the caller's own polls including drafts
// @Tags         polls
// @Produce      json
// @Param        mine query bool false "List own polls (requires auth)"
// @Success      200 {object} map[string]interface{}
// @Failure      401 {object} ErrorResponse
// @Router       /api/polls [get]
func (h *PollHandler) ListPolls(c *gin.Context) {
	userID := c.GetUint("user_id")
	mine := c.Query("mine") == "true"

	if mine && userID == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required to list own polls"})
		return
	}

	polls, err := h.pollService.ListPolls(userID, mine)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"polls": polls})
}

// GetPoll godoc
// @Summary      Get a poll
// @Description  Get a poll with its live aggregate; unpublished polls are visible only to their creator
// @Tags         polls
// @Produce      json
// @Param        id path int true "Poll ID"
// @Success      200 {object} map[string]interface{}
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/polls/{id} [get]
func (h *PollHandler) GetPoll(c *gin.Context) {
	pollID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid poll id"})
		return
	}

	poll, err := h.pollService.GetPoll(uint(pollID), c.GetUint("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"poll": poll})
}

// UpdatePoll godoc
// @Summary      Update a poll
// @Description  Update question or publication flag; creator only
// @Tags         polls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Poll ID"
// @Param        request body UpdatePollRequest true "Fields to update"
// @Success      200 {object} map[string]interface{}
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/polls/{id} [put]
func (h *PollHandler) UpdatePoll(c *gin.Context) {
	userID := c.GetUint("user_id")
	pollID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid poll id"})
		return
	}

	var req UpdatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	poll, err := h.pollService.UpdatePoll(uint(pollID), userID, req.Question, req.IsPublished)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "poll updated successfully",
		"poll":    poll,
	})
}

// DeletePoll godoc
// @Summary      Delete a poll
// @Description  Delete a poll with its options and votes; creator only
// @Tags         polls
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Poll ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/polls/{id} [delete]
func (h *PollHandler) DeletePoll(c *gin.Context) {
	userID := c.GetUint("user_id")
	pollID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid poll id"})
		return
	}

	if err := h.pollService.DeletePoll(uint(pollID), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "poll deleted successfully"})
}
