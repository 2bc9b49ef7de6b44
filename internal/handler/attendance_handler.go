package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-insight-api/internal/dto"
	"github.com/noah-isme/attendance-insight-api/internal/models"
	"github.com/noah-isme/attendance-insight-api/internal/service"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
	"github.com/noah-isme/attendance-insight-api/pkg/response"
)

// AttendanceHandler exposes the attendance write and read endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Record godoc
// @Summary Record one student's attendance for a day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param request body dto.RecordAttendanceRequest true "Attendance record"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req dto.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload"))
		return
	}
	record, err := h.attendance.RecordAttendance(c.Request.Context(), req.StudentID, req.LastName, req.Date, req.Status, req.Late, req.EarlyDismissal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param studentId query string false "Student ID"
// @Param lastName query string false "Last name"
// @Param status query string false "Attendance status"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	filter := models.AttendanceFilter{
		StudentID: c.Query("studentId"),
		LastName:  c.Query("lastName"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AttendanceStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status: "+raw))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("dateFrom"); raw != "" {
		date, err := models.ParseDateISO(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.DateFrom = &date
	}
	if raw := c.Query("dateTo"); raw != "" {
		date, err := models.ParseDateISO(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.DateTo = &date
	}

	records, err := h.attendance.ListAttendance(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ScheduleDayOff godoc
// @Summary Schedule a day off and bulk-excuse students
// @Tags Attendance
// @Accept json
// @Produce json
// @Param request body dto.ScheduleDayOffRequest true "Day off"
// @Success 201 {object} response.Envelope
// @Router /calendar/days-off [post]
func (h *AttendanceHandler) ScheduleDayOff(c *gin.Context) {
	var req dto.ScheduleDayOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day off payload"))
		return
	}
	dayOff, err := h.attendance.ScheduleDayOff(c.Request.Context(), req.Date, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dayOff)
}

// ListDaysOff godoc
// @Summary List scheduled days off
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /calendar/days-off [get]
func (h *AttendanceHandler) ListDaysOff(c *gin.Context) {
	daysOff, err := h.attendance.ListDaysOff(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, daysOff, nil)
}
