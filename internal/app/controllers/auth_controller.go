package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/services"
	"github.com/yigit/moderator/internal/middleware"
)

// AuthController handles the development login
type AuthController struct {
	authService services.AuthService
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// DevLogin issues a token for an existing username
// @Summary Development login
// @Description Only available in development mode with dev login enabled; 404 otherwise.
// @Tags auth
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse}
// @Failure 404 {object} dto.ErrorResponse "Not available or unknown user"
// @Router /auth/dev-login/{username} [post]
func (c *AuthController) DevLogin(ctx *gin.Context) {
	resp, err := c.authService.DevLogin(ctx, ctx.Param("username"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}
