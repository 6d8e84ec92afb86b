// Package handlers implements the REST endpoints of the analysis API.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/pkg/errors"
	"github.com/labelwise/labelwise/pkg/types/analysis"
)

// Resolver is the engine surface the handlers consume.
type Resolver interface {
	AnalyzeProduct(ctx context.Context, productName string, rawNames []string, userContext string) (analysis.ProductAnalysis, error)
	GetIngredient(ctx context.Context, raw string) (ingredient.Record, error)
	Health(ctx context.Context) analysis.HealthReport
}

// errorBody is the uniform error response shape.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError renders err with its mapped status code. Unknown errors become
// internal_error without leaking detail.
func writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if !errors.IsSurfaced(code) {
		code = errors.CodeInternal
	}
	message := errors.DefaultMessageForCode(code)
	if appErr, ok := err.(*errors.AppError); ok && errors.IsSurfaced(appErr.Code) && appErr.Message != "" {
		message = appErr.Message
	}
	c.AbortWithStatusJSON(errors.HTTPStatusForCode(code), errorBody{
		Error: errorDetail{Code: string(code), Message: message},
	})
}
