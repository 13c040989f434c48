package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// CodeRateLimited is the error code the backend uses to reject uploads
// inside the cooldown window.
const CodeRateLimited = "RATE_LIMIT_EXCEEDED"

// APIError is a structured rejection from the backend: a machine-readable
// code plus a human-readable message. RetryAfter is the server-dictated
// wait in seconds; it is populated only on the upload path.
type APIError struct {
	Code       string
	Message    string
	RetryAfter int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRateLimited reports whether the error carries the rate-limit code.
func (e *APIError) IsRateLimited() bool {
	return e.Code == CodeRateLimited
}

// StatusError is a non-success HTTP response whose body did not contain a
// structured error.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// errorBody is the wire shape of a structured rejection.
type errorBody struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retryAfter"`
	} `json:"error"`
}

// classifyError turns a non-2xx response body into an error. A parseable
// structured body yields an *APIError; anything else falls back to a
// *StatusError carrying the raw status. When withRetry is set, a retry
// delay is read from the body or the Retry-After header (seconds) - the
// header wins only when the body carries none.
func classifyError(status int, header http.Header, body []byte, withRetry bool) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Code != "" {
		apiErr := &APIError{Code: eb.Error.Code, Message: eb.Error.Message}
		if withRetry {
			apiErr.RetryAfter = eb.Error.RetryAfter
			if apiErr.RetryAfter == 0 {
				if v, err := strconv.Atoi(header.Get("Retry-After")); err == nil {
					apiErr.RetryAfter = v
				}
			}
		}
		return apiErr
	}
	return &StatusError{StatusCode: status}
}
