package errors

import "net/http"

// ErrorCode is the stable string identifier of a failure class. Codes are
// part of the public contract: they appear in API responses, in
// IngredientFact.StatusCode, and as metric labels. Never compare error text;
// compare codes.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Surfaced codes. These are the only codes a caller of the engine can
// observe; everything else is recovered locally.
const (
	CodeInvalidInput     ErrorCode = "invalid_input"
	CodeDeadlineExceeded ErrorCode = "deadline_exceeded"
	CodeInternal         ErrorCode = "internal_error"
)

// Provider-local codes. They classify a single provider call's failure and
// are recorded in the fact's status code; they never propagate to callers.
const (
	CodeRateLimited  ErrorCode = "rate_limited"
	CodeBulkheadFull ErrorCode = "bulkhead_full"
	CodeBreakerOpen  ErrorCode = "breaker_open"
	CodeTimeout      ErrorCode = "timeout"
	CodeParseError   ErrorCode = "parse_error"
	CodeUpstream4xx  ErrorCode = "upstream_4xx"
	CodeUpstream5xx  ErrorCode = "upstream_5xx"
)

// Infrastructure and interface codes used inside the process.
const (
	CodeNotFound      ErrorCode = "not_found"
	CodeDatabaseError ErrorCode = "database_error"
	CodeCacheError    ErrorCode = "cache_error"
	CodeMirrorError   ErrorCode = "mirror_error"
	CodeQueueError    ErrorCode = "queue_error"
	CodeConfigError   ErrorCode = "config_error"
	CodeUnknown       ErrorCode = "unknown"
	CodeOK            ErrorCode = "ok"
)

// errorCodeHTTPStatus maps codes to HTTP status codes for the API layer.
var errorCodeHTTPStatus = map[ErrorCode]int{
	CodeInvalidInput:     http.StatusBadRequest,
	CodeDeadlineExceeded: http.StatusGatewayTimeout,
	CodeInternal:         http.StatusInternalServerError,

	CodeRateLimited:  http.StatusTooManyRequests,
	CodeBulkheadFull: http.StatusServiceUnavailable,
	CodeBreakerOpen:  http.StatusServiceUnavailable,
	CodeTimeout:      http.StatusGatewayTimeout,
	CodeParseError:   http.StatusBadGateway,
	CodeUpstream4xx:  http.StatusBadGateway,
	CodeUpstream5xx:  http.StatusBadGateway,

	CodeNotFound:      http.StatusNotFound,
	CodeDatabaseError: http.StatusInternalServerError,
	CodeCacheError:    http.StatusInternalServerError,
	CodeMirrorError:   http.StatusInternalServerError,
	CodeQueueError:    http.StatusInternalServerError,
	CodeConfigError:   http.StatusInternalServerError,
}

// errorCodeMessage maps codes to default human-readable messages.
var errorCodeMessage = map[ErrorCode]string{
	CodeInvalidInput:     "invalid input",
	CodeDeadlineExceeded: "deadline exceeded",
	CodeInternal:         "internal error",

	CodeRateLimited:  "provider rate limit exceeded",
	CodeBulkheadFull: "provider concurrency limit reached",
	CodeBreakerOpen:  "provider circuit breaker open",
	CodeTimeout:      "provider call timed out",
	CodeParseError:   "failed to parse provider response",
	CodeUpstream4xx:  "provider rejected the request",
	CodeUpstream5xx:  "provider server error",

	CodeNotFound:      "resource not found",
	CodeDatabaseError: "database error",
	CodeCacheError:    "cache error",
	CodeMirrorError:   "document mirror error",
	CodeQueueError:    "message queue error",
	CodeConfigError:   "configuration error",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := errorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsSurfaced reports whether a code may cross the engine boundary to a
// caller. Any other code must be absorbed into an IngredientFact.
func IsSurfaced(code ErrorCode) bool {
	switch code {
	case CodeInvalidInput, CodeDeadlineExceeded, CodeInternal:
		return true
	}
	return false
}

// IsTransient reports whether a provider failure class is worth retrying.
// Parse errors and non-429 4xx responses are deterministic; retrying them
// only burns rate-limit tokens.
func IsTransient(code ErrorCode) bool {
	switch code {
	case CodeTimeout, CodeUpstream5xx, CodeRateLimited:
		return true
	}
	return false
}
