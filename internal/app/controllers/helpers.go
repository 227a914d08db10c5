package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/middleware"
	"github.com/yigit/moderator/internal/pkg/apperrors"
)

// actorOrAbort returns the authenticated user or writes a 401
func actorOrAbort(ctx *gin.Context) (*models.User, bool) {
	actor, err := middleware.GetActor(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return nil, false
	}
	return actor, true
}

// parseIDParam reads a positive int64 path parameter or writes a 400
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Invalid "+name+": must be a positive number"))
		return 0, false
	}
	return id, true
}
