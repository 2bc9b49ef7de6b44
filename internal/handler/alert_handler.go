package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-insight-api/internal/dto"
	"github.com/noah-isme/attendance-insight-api/internal/models"
	"github.com/noah-isme/attendance-insight-api/internal/repository"
	"github.com/noah-isme/attendance-insight-api/internal/service"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
	"github.com/noah-isme/attendance-insight-api/pkg/response"
)

// AlertHandler exposes threshold and alert endpoints.
type AlertHandler struct {
	alerts *service.AlertService
}

// NewAlertHandler constructs the handler.
func NewAlertHandler(alerts *service.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// CreateThreshold godoc
// @Summary Create an alert threshold rule
// @Tags Alerts
// @Accept json
// @Produce json
// @Param request body dto.CreateThresholdRequest true "Threshold rule"
// @Success 201 {object} response.Envelope
// @Router /alerts/thresholds [post]
func (h *AlertHandler) CreateThreshold(c *gin.Context) {
	var req dto.CreateThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid threshold payload"))
		return
	}
	write, err := h.alerts.CreateThreshold(c.Request.Context(), req.Type, req.Count, req.Period, req.StudentID, req.NotifyParents)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, write)
}

// UpdateThreshold godoc
// @Summary Update an alert threshold's count or parent notification flag
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Threshold ID"
// @Param request body dto.UpdateThresholdRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /alerts/thresholds/{id} [patch]
func (h *AlertHandler) UpdateThreshold(c *gin.Context) {
	var req dto.UpdateThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid threshold payload"))
		return
	}
	threshold, err := h.alerts.UpdateThreshold(c.Request.Context(), c.Param("id"), req.Count, req.NotifyParents)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, threshold, nil)
}

// ListThresholds godoc
// @Summary List alert threshold rules
// @Tags Alerts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /alerts/thresholds [get]
func (h *AlertHandler) ListThresholds(c *gin.Context) {
	thresholds, err := h.alerts.ListThresholds(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thresholds, nil)
}

// CompareThreshold godoc
// @Summary Replay counts against a proposed threshold setting
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Threshold ID"
// @Param request body dto.CompareThresholdRequest true "Proposed setting"
// @Success 200 {object} response.Envelope
// @Router /alerts/thresholds/{id}/compare [post]
func (h *AlertHandler) CompareThreshold(c *gin.Context) {
	var req dto.CompareThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comparison payload"))
		return
	}
	comparison, err := h.alerts.CompareThreshold(c.Request.Context(), c.Param("id"), req.Count, req.Period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comparison, nil)
}

// Effectiveness godoc
// @Summary Threshold effectiveness statistics
// @Tags Alerts
// @Produce json
// @Param id path string true "Threshold ID"
// @Success 200 {object} response.Envelope
// @Router /alerts/thresholds/{id}/effectiveness [get]
func (h *AlertHandler) Effectiveness(c *gin.Context) {
	effectiveness, err := h.alerts.Effectiveness(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, effectiveness, nil)
}

// List godoc
// @Summary List triggered alerts
// @Tags Alerts
// @Produce json
// @Param studentId query string false "Student ID"
// @Param status query string false "Alert status (active or dismissed)"
// @Success 200 {object} response.Envelope
// @Router /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	filter := repository.AlertFilter{
		StudentID:   c.Query("studentId"),
		ThresholdID: c.Query("thresholdId"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AlertStatus(raw)
		if status != models.AlertStatusActive && status != models.AlertStatusDismissed {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown alert status: "+raw))
			return
		}
		filter.Status = &status
	}
	alerts, err := h.alerts.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, nil)
}

// Evaluate godoc
// @Summary Run threshold evaluation now
// @Tags Alerts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /alerts/evaluate [post]
func (h *AlertHandler) Evaluate(c *gin.Context) {
	created, err := h.alerts.Evaluate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"alertsCreated": created}, nil)
}

// Dismiss godoc
// @Summary Dismiss an active alert
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 204
// @Router /alerts/{id} [delete]
func (h *AlertHandler) Dismiss(c *gin.Context) {
	if err := h.alerts.DismissAlert(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
