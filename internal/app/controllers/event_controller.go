package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/services"
	"github.com/yigit/moderator/internal/middleware"
)

// EventController handles event listing, editing and moderation queues
type EventController struct {
	eventService services.EventService
}

// NewEventController creates a new EventController
func NewEventController(eventService services.EventService) *EventController {
	return &EventController{
		eventService: eventService,
	}
}

// ListOpenEvents lists events that are still open
// @Summary List open events
// @Description Lists non-archived events with approved, rejected and pending question counts. NDA events are listed only for NDA members and superusers.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.EventListResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events [get]
func (c *EventController) ListOpenEvents(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	resp, err := c.eventService.ListOpen(ctx, actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// ListArchivedEvents lists archived events page by page
// @Summary List archived events
// @Description Returns archived events newest first. A page past the end returns the last page.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)" minimum(1)
// @Param pageSize query int false "Items per page" minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.ArchiveListResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /events/archive [get]
func (c *EventController) ListArchivedEvents(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req dto.ArchiveFilterRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	resp, err := c.eventService.ListArchived(ctx, actor, req.Page, req.PageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// CreateEvent creates an event owned and moderated by the caller
// @Summary Create an event
// @Description Creates an event. The slug is derived from the name and made unique with a numeric suffix.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SaveEventRequest true "Event"
// @Success 201 {object} dto.APIResponse{data=dto.EventResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	c.save(ctx, "", http.StatusCreated)
}

// UpdateEvent edits an event the caller moderates
// @Summary Edit an event
// @Description Replaces the event fields and its moderators. Archived events cannot be reopened.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Param request body dto.SaveEventRequest true "Event"
// @Success 200 {object} dto.APIResponse{data=dto.EventResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{slug} [put]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	c.save(ctx, ctx.Param("slug"), http.StatusOK)
}

func (c *EventController) save(ctx *gin.Context, slug string, status int) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req dto.SaveEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	resp, notices, err := c.eventService.Save(ctx, actor, slug, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(status, dto.NewAPIResponse(resp, notices...))
}

// DeleteEvent deletes an event the caller moderates
// @Summary Delete an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{slug} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	notices, err := c.eventService.Delete(ctx, actor, ctx.Param("slug"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, notices...))
}

// ShowEvent returns an event with its accepted questions
// @Summary Show an event
// @Description Accepted questions, ordered by votes for admins and archived events and shuffled otherwise.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Success 200 {object} dto.APIResponse{data=dto.EventDetailResponse}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{slug} [get]
func (c *EventController) ShowEvent(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	resp, err := c.eventService.Show(ctx, actor, ctx.Param("slug"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// ModerationQueue returns the pending questions of an event
// @Summary Pending questions
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Success 200 {object} dto.APIResponse{data=dto.ModerationQueueResponse}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{slug}/moderation [get]
func (c *EventController) ModerationQueue(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	resp, err := c.eventService.PendingQuestions(ctx, actor, ctx.Param("slug"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}
