package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormat(t *testing.T) {
	err := New(CodeInvalidInput, "raw_tokens must not be empty")
	assert.Equal(t, "invalid_input: raw_tokens must not be empty", err.Error())

	withDetail := err.WithDetail("got 0 tokens")
	assert.Equal(t, "invalid_input: raw_tokens must not be empty: got 0 tokens", withDetail.Error())
	// WithDetail must not mutate the receiver.
	assert.Empty(t, err.Detail)
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, CodeDatabaseError, "upsert ingredient")
	require.NotNil(t, err)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, CodeDatabaseError, GetCode(err))

	// Wrapping again with CodeUnknown keeps the original classification.
	outer := Wrap(err, CodeUnknown, "resolution failed")
	assert.Equal(t, CodeDatabaseError, outer.Code)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "should be nil"))
}

func TestIsCode(t *testing.T) {
	inner := New(CodeBreakerOpen, "ewg breaker open")
	wrapped := fmt.Errorf("fetch failed: %w", inner)

	assert.True(t, IsCode(wrapped, CodeBreakerOpen))
	assert.False(t, IsCode(wrapped, CodeTimeout))
	assert.False(t, IsCode(nil, CodeTimeout))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, CodeTimeout, GetCode(New(CodeTimeout, "deadline")))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatusForCode(CodeInvalidInput))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatusForCode(CodeDeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("bogus")))
}

func TestSurfacedAndTransient(t *testing.T) {
	for _, code := range []ErrorCode{CodeInvalidInput, CodeDeadlineExceeded, CodeInternal} {
		assert.True(t, IsSurfaced(code), code)
	}
	for _, code := range []ErrorCode{CodeRateLimited, CodeBreakerOpen, CodeParseError, CodeUpstream4xx} {
		assert.False(t, IsSurfaced(code), code)
	}

	assert.True(t, IsTransient(CodeTimeout))
	assert.True(t, IsTransient(CodeUpstream5xx))
	assert.True(t, IsTransient(CodeRateLimited))
	assert.False(t, IsTransient(CodeParseError))
	assert.False(t, IsTransient(CodeUpstream4xx))
	assert.False(t, IsTransient(CodeBreakerOpen))
	assert.False(t, IsTransient(CodeBulkheadFull))
}
