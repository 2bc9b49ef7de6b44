package dto

// QueryRequest carries a free-text question for the interpreter.
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// ExportRequest wraps a report request with an output format.
type ExportRequest struct {
	Report      GenerateReportRequest `json:"report"`
	Format      string                `json:"format" binding:"required"`
	SummaryOnly bool                  `json:"summaryOnly"`
}
