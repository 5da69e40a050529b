package claudeweb

import (
	"encoding/json"
	"fmt"
	"time"
)

// APIError is a failed Claude.ai API call. StatusCode is zero for transport
// failures that never produced an HTTP response.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// rateLimitedError is the shape of a 429 body. The upstream nests a JSON
// document inside error.message, which in turn carries the reset timestamp.
type rateLimitedError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// newHTTPError maps an upstream HTTP failure to an APIError. 403 gets a
// fixed message and 429 a reformatted reset time; everything else carries
// the raw body.
func newHTTPError(statusCode int, body []byte) *APIError {
	switch statusCode {
	case 403:
		return &APIError{
			StatusCode: statusCode,
			Message:    "Received a 403 Forbidden error.",
		}
	case 429:
		return &APIError{
			StatusCode: statusCode,
			Message:    rateLimitMessage(body),
		}
	default:
		return &APIError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("API request failed with status code %d: %s", statusCode, body),
		}
	}
}

// rateLimitMessage extracts resetsAt from a 429 payload and renders a
// human-readable retry hint. Payloads that do not match the expected nesting
// are reported as-is.
func rateLimitMessage(body []byte) string {
	var rle rateLimitedError
	if err := json.Unmarshal(body, &rle); err != nil {
		return fmt.Sprintf("HTTP 429: Too Many Requests. Failed to parse error response: %v", err)
	}

	var inner struct {
		ResetsAt int64 `json:"resetsAt"`
	}
	if err := json.Unmarshal([]byte(rle.Error.Message), &inner); err != nil || inner.ResetsAt == 0 {
		return fmt.Sprintf("HTTP 429: Too Many Requests. Failed to parse error response: %s", body)
	}

	resetsAt := time.Unix(inner.ResetsAt, 0).Local()
	return fmt.Sprintf("Message limit exceeded. Try again after %s", resetsAt.Format("Mon Jan 02 2006 15:04:05 MST"))
}
