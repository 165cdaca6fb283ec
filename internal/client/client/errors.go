package client

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrUnavailable  = errors.New("backend unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx backend response. Message is the backend's
// human-readable text, kept verbatim for display.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// Unwrap maps the status to a transport sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusTooManyRequests || e.Status >= 500:
		return ErrUnavailable
	default:
		return nil
	}
}

// messageKeys are checked in order; identity and data endpoints disagree on
// where they put the text.
var messageKeys = []string{"msg", "message", "error_description", "error"}

// newAPIError builds an APIError from a response status and body.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		for _, k := range messageKeys {
			if v := res.Get(k); v.Exists() && v.Type == gjson.String && v.String() != "" {
				e.Message = v.String()
				return e
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "{") {
		e.Message = text
	}
	return e
}
