package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Status     string
	URL        string
	// Message is GitHub's JSON "message" field, when the body carried one.
	Message string
	Body    []byte
}

func newAPIError(code int, url string, body []byte) *APIError {
	e := &APIError{
		StatusCode: code,
		Status:     http.StatusText(code),
		URL:        url,
		Body:       body,
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Message
	}
	return e
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
	if e.Message != "" {
		msg += " (" + e.Message + ")"
	}
	return msg
}

// IsRateLimited reports whether GitHub refused the request for quota reasons.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		(e.StatusCode == http.StatusForbidden && strings.HasPrefix(e.Message, "API rate limit exceeded"))
}
