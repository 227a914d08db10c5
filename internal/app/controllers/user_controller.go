package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/services"
	"github.com/yigit/moderator/internal/middleware"
)

// UserController serves the caller's profile and the moderator picker
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// Autocomplete suggests moderators
// @Summary Moderator autocomplete
// @Description Active users who logged in within six months, plus superusers. q matches first name, email or username.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Success 200 {object} dto.APIResponse{data=[]dto.AutocompleteItem}
// @Router /users/autocomplete [get]
func (c *UserController) Autocomplete(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req dto.AutocompleteRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	items, err := c.userService.ModeratorAutocomplete(ctx, actor, req.Query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(items))
}

// Me returns the authenticated user
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserProfileResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /users/me [get]
func (c *UserController) Me(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	resp, err := c.userService.Me(ctx, actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}
