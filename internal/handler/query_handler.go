package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-insight-api/internal/dto"
	"github.com/noah-isme/attendance-insight-api/internal/service"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
	"github.com/noah-isme/attendance-insight-api/pkg/response"
)

// QueryHandler exposes the natural-language query endpoint.
type QueryHandler struct {
	queries *service.QueryService
}

// NewQueryHandler constructs the handler.
func NewQueryHandler(queries *service.QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// Ask godoc
// @Summary Interpret a free-text attendance question
// @Tags Query
// @Accept json
// @Produce json
// @Param request body dto.QueryRequest true "Question"
// @Success 200 {object} models.QueryResponse
// @Router /query [post]
func (h *QueryHandler) Ask(c *gin.Context) {
	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "query is required"))
		return
	}
	// The interpreter owns its failure shape; it never raises errors here.
	c.JSON(http.StatusOK, h.queries.Interpret(c.Request.Context(), req.Query))
}
