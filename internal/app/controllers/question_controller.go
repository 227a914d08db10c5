package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/services"
	"github.com/yigit/moderator/internal/middleware"
	"github.com/yigit/moderator/internal/pkg/apperrors"
)

// QuestionController handles submissions, replies, moderation and votes
type QuestionController struct {
	questionService services.QuestionService
}

// NewQuestionController creates a new QuestionController
func NewQuestionController(questionService services.QuestionService) *QuestionController {
	return &QuestionController{
		questionService: questionService,
	}
}

// SubmitQuestion adds a question to an event
// @Summary Submit a question
// @Description Accepted immediately on unmoderated events or when the caller moderates the event, pending otherwise.
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Param request body dto.SubmitQuestionRequest true "Question"
// @Success 201 {object} dto.APIResponse{data=dto.QuestionResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Event is archived"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{slug}/questions [post]
func (c *QuestionController) SubmitQuestion(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req dto.SubmitQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	resp, notices, err := c.questionService.Submit(ctx, actor, ctx.Param("slug"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(resp, notices...))
}

// ReplyQuestion lets a moderator edit a question and attach an answer
// @Summary Reply to a question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Param questionId path int true "Question ID" Format(int64) minimum(1)
// @Param request body dto.ReplyQuestionRequest true "Reply"
// @Success 200 {object} dto.APIResponse{data=dto.QuestionResponse}
// @Failure 403 {object} dto.ErrorResponse "Event is archived"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /events/{slug}/questions/{questionId} [put]
func (c *QuestionController) ReplyQuestion(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	questionID, ok := parseIDParam(ctx, "questionId")
	if !ok {
		return
	}
	var req dto.ReplyQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	resp, notices, err := c.questionService.Reply(ctx, actor, ctx.Param("slug"), questionID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp, notices...))
}

// ModerateQuestion accepts or rejects a question
// @Summary Moderate a question
// @Description Records the decision. A rejection with a reason is mailed to the submitter when contact info exists.
// @Tags moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Param questionId path int true "Question ID" Format(int64) minimum(1)
// @Param request body dto.ModerateRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.ModerationQuestionResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid question or decision"
// @Failure 403 {object} dto.ErrorResponse "Event is archived"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Failure 502 {object} dto.ErrorResponse "Decision stored, notification failed"
// @Router /events/{slug}/moderation/questions/{questionId} [post]
func (c *QuestionController) ModerateQuestion(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	questionID, ok := parseIDParam(ctx, "questionId")
	if !ok {
		return
	}
	var req dto.ModerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	resp, notices, err := c.questionService.Moderate(ctx, actor, ctx.Param("slug"), questionID, &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotificationFailed) && resp != nil {
			status, detail := middleware.ErrorStatus(err)
			body := dto.NewAPIResponse(resp)
			body.Error = detail
			ctx.AbortWithStatusJSON(status, body)
			return
		}
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp, notices...))
}

// ToggleVote adds the caller's vote or removes it
// @Summary Toggle a vote
// @Description The current count is returned only to the event creator and superusers; everyone else gets an empty object. Votes an event does not admit return a warning notice.
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "Question ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.VoteResponse}
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Failure 409 {object} dto.ErrorResponse "Concurrent duplicate vote"
// @Router /questions/{questionId}/vote [post]
func (c *QuestionController) ToggleVote(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	questionID, ok := parseIDParam(ctx, "questionId")
	if !ok {
		return
	}
	resp, notices, err := c.questionService.ToggleVote(ctx, actor, questionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp, notices...))
}
