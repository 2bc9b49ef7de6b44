package dto

import (
	"github.com/noah-isme/attendance-insight-api/internal/models"
)

// GenerateReportRequest is the report endpoint payload.
type GenerateReportRequest struct {
	LastName       string                   `json:"lastName"`
	Status         *models.AttendanceStatus `json:"status"`
	Date           string                   `json:"date"`
	RelativePeriod models.RelativePeriod    `json:"relativePeriod"`

	IncludeCount      bool `json:"includeCount"`
	IncludePercentage bool `json:"includePercentage"`
	IncludeStreaks    bool `json:"includeStreaks"`
	IncludeTrends     bool `json:"includeTrends"`

	Page          int                  `json:"page"`
	Limit         int                  `json:"limit"`
	SortField     string               `json:"sortField"`
	SortDirection models.SortDirection `json:"sortDirection"`

	UseCache *bool `json:"useCache"`
}

// ToModel converts the payload into the engine's request shape. Caching
// defaults to on unless explicitly disabled.
func (r GenerateReportRequest) ToModel() models.ReportRequest {
	useCache := true
	if r.UseCache != nil {
		useCache = *r.UseCache
	}
	return models.ReportRequest{
		LastName:          r.LastName,
		Status:            r.Status,
		Date:              r.Date,
		RelativePeriod:    r.RelativePeriod,
		IncludeCount:      r.IncludeCount,
		IncludePercentage: r.IncludePercentage,
		IncludeStreaks:    r.IncludeStreaks,
		IncludeTrends:     r.IncludeTrends,
		Page:              r.Page,
		Limit:             r.Limit,
		SortField:         r.SortField,
		SortDirection:     r.SortDirection,
		UseCache:          useCache,
	}
}
