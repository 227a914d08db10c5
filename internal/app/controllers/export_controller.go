package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/services"
	"github.com/yigit/moderator/internal/middleware"
)

// ExportController serves administrative downloads
type ExportController struct {
	exportService services.ExportService
}

// NewExportController creates a new ExportController
func NewExportController(exportService services.ExportService) *ExportController {
	return &ExportController{
		exportService: exportService,
	}
}

// ExportQuestions downloads the questions of the selected events as CSV
// @Summary Export questions as CSV
// @Description For each event: a row with the event name, then one row per question with its vote count, most voted first. Superusers only.
// @Tags admin
// @Produce text/csv
// @Security BearerAuth
// @Param slug query []string true "Event slugs" collectionFormat(multi)
// @Success 200 {file} file "questions.csv"
// @Failure 400 {object} dto.ErrorResponse "No events selected"
// @Failure 403 {object} dto.ErrorResponse "Superuser required"
// @Router /admin/events/export [get]
func (c *ExportController) ExportQuestions(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req dto.ExportRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	var buf bytes.Buffer
	if err := c.exportService.ExportQuestionsCSV(ctx, actor, req.Slugs, &buf); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFilename))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
