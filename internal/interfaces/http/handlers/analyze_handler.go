package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/labelwise/labelwise/pkg/errors"
)

// AnalyzeHandler serves product-level analysis.
type AnalyzeHandler struct {
	resolver Resolver
}

func NewAnalyzeHandler(resolver Resolver) *AnalyzeHandler {
	return &AnalyzeHandler{resolver: resolver}
}

// AnalyzeRequest is the POST /api/v1/analyze body.
type AnalyzeRequest struct {
	ProductName string   `json:"product_name"`
	Ingredients []string `json:"ingredients" binding:"required"`
	UserContext string   `json:"user_context"`
}

// Analyze resolves the ingredient list and returns the product verdict.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Wrap(err, errors.CodeInvalidInput, "malformed request body"))
		return
	}

	result, err := h.resolver.AnalyzeProduct(c.Request.Context(), req.ProductName, req.Ingredients, req.UserContext)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
