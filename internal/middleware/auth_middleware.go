package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/repositories"
	"github.com/yigit/moderator/internal/pkg/apperrors"
	"github.com/yigit/moderator/internal/pkg/auth"
)

const actorKey = "actor"

// AuthMiddleware resolves the bearer token into the acting user
type AuthMiddleware struct {
	jwtService *auth.JWTService
	userRepo   repositories.UserRepository
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, userRepo repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
	}
}

func unauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	detail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.APIResponse{Error: detail, Timestamp: timeNow()})
}

// JWTAuth validates the token and loads the active user as the request actor
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// Swagger UI sometimes sends the token as a query parameter
			authHeader = c.Query("token")
		}
		if authHeader == "" {
			unauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(strings.Trim(authHeader, "\"'"))
		if err != nil {
			unauthorized(c, dto.ErrorCodeUnauthorized, "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				unauthorized(c, dto.ErrorCodeInvalidToken, "Unknown user")
				return
			}
			HandleAPIError(c, err)
			return
		}
		if !user.IsActive {
			unauthorized(c, dto.ErrorCodeUnauthorized, "Account is disabled")
			return
		}

		c.Set(actorKey, user)
		c.Set("userID", user.ID)
		c.Next()
	}
}

// SetActor stores the acting user on the context
func SetActor(c *gin.Context, user *models.User) {
	c.Set(actorKey, user)
}

// GetActor returns the user set by JWTAuth
func GetActor(c *gin.Context) (*models.User, error) {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return user, nil
}

// SuperuserRequired rejects actors without the superuser flag. JWTAuth must run first.
func SuperuserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetActor(c)
		if err != nil {
			unauthorized(c, dto.ErrorCodeUnauthorized, "User not found in context")
			return
		}
		if !user.IsSuperuser {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("You don't have sufficient permissions for this operation")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.APIResponse{Error: errorDetail, Timestamp: timeNow()})
			return
		}
		c.Next()
	}
}
