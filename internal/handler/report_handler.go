package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-insight-api/internal/dto"
	"github.com/noah-isme/attendance-insight-api/internal/service"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
	"github.com/noah-isme/attendance-insight-api/pkg/response"
)

// ReportHandler exposes the reporting endpoint.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Generate godoc
// @Summary Generate an aggregated attendance report
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body dto.GenerateReportRequest true "Report request"
// @Success 200 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	var req dto.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request"))
		return
	}
	result, err := h.reports.GenerateReport(c.Request.Context(), req.ToModel())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, result.Pagination)
}
