package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/models/dto"
)

// PingFunc reports whether the backing store is reachable
type PingFunc func(ctx context.Context) error

// HealthController reports liveness of the API and its store
type HealthController struct {
	ping PingFunc
}

// NewHealthController creates a new HealthController. A nil ping always reports up.
func NewHealthController(ping PingFunc) *HealthController {
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}
	return &HealthController{
		ping: ping,
	}
}

// Check reports the API and storage status
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 503 {object} dto.ErrorResponse "Storage unreachable"
// @Router /health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	if err := c.ping(ctx.Request.Context()); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Storage unreachable").WithDetails(err.Error())
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.APIResponse{Error: errorDetail, Timestamp: time.Now()})
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(gin.H{"status": "ok", "storage": "up"}))
}
