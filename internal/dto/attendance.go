package dto

import (
	"github.com/noah-isme/attendance-insight-api/internal/models"
)

// RecordAttendanceRequest is the payload for recording one attendance fact.
type RecordAttendanceRequest struct {
	StudentID      string                  `json:"studentId" binding:"required"`
	LastName       string                  `json:"lastName"`
	Date           string                  `json:"date" binding:"required"`
	Status         models.AttendanceStatus `json:"status" binding:"required"`
	Late           bool                    `json:"late"`
	EarlyDismissal bool                    `json:"earlyDismissal"`
}

// ScheduleDayOffRequest is the payload for scheduling a day off.
type ScheduleDayOffRequest struct {
	Date   string              `json:"date" binding:"required"`
	Reason models.DayOffReason `json:"reason" binding:"required"`
}
