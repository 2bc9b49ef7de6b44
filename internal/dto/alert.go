package dto

import (
	"github.com/noah-isme/attendance-insight-api/internal/models"
)

// CreateThresholdRequest is the payload for defining a new alert rule.
type CreateThresholdRequest struct {
	Type          models.ThresholdType   `json:"type" binding:"required"`
	Count         int                    `json:"count" binding:"required"`
	Period        models.ThresholdPeriod `json:"period" binding:"required"`
	StudentID     *string                `json:"studentId"`
	NotifyParents bool                   `json:"notifyParents"`
}

// UpdateThresholdRequest carries the in-place mutable fields of a rule.
type UpdateThresholdRequest struct {
	Count         *int  `json:"count"`
	NotifyParents *bool `json:"notifyParents"`
}

// CompareThresholdRequest proposes a candidate setting for impact replay.
type CompareThresholdRequest struct {
	Count  int                    `json:"count" binding:"required"`
	Period models.ThresholdPeriod `json:"period" binding:"required"`
}
