package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IngredientHandler serves single-ingredient lookups.
type IngredientHandler struct {
	resolver Resolver
}

func NewIngredientHandler(resolver Resolver) *IngredientHandler {
	return &IngredientHandler{resolver: resolver}
}

// Get resolves one ingredient by raw name. The name is canonicalized before
// lookup, so "Aqua" and "water" return the same record.
func (h *IngredientHandler) Get(c *gin.Context) {
	record, err := h.resolver.GetIngredient(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
