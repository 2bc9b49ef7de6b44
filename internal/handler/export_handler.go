package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-insight-api/internal/dto"
	"github.com/noah-isme/attendance-insight-api/internal/service"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
	"github.com/noah-isme/attendance-insight-api/pkg/response"
)

// ExportHandler renders report downloads.
type ExportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(reports *service.ReportService, exports *service.ExportService) *ExportHandler {
	return &ExportHandler{reports: reports, exports: exports}
}

// Export godoc
// @Summary Generate a report and download it as CSV, JSON, or PDF
// @Tags Exports
// @Accept json
// @Produce octet-stream
// @Param request body dto.ExportRequest true "Report request and format"
// @Success 200 {file} binary
// @Router /exports [post]
func (h *ExportHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload"))
		return
	}

	result, err := h.reports.GenerateReport(c.Request.Context(), req.Report.ToModel())
	if err != nil {
		response.Error(c, err)
		return
	}
	download, err := h.exports.Export(result, req.Format, service.ExportOptions{SummaryOnly: req.SummaryOnly})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+download.Filename+`"`)
	c.Data(http.StatusOK, download.MIMEType, download.Data)
}
