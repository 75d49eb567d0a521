package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 4 << 10

// StatusError is returned for any response with status >= 400.
type StatusError struct {
	Code   int
	Path   string
	Detail string // the backend's "detail" field, or the raw body
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Code, e.Detail)
}

// StatusCode exposes the HTTP status for error classification.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// Unauthorized reports whether the backend rejected the credentials.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

func newStatusError(path string, resp *http.Response) *StatusError {
	se := &StatusError{Code: resp.StatusCode, Path: path}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return se
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 {
		var text string
		if json.Unmarshal(body.Detail, &text) == nil {
			se.Detail = text
		} else {
			// Validation errors arrive as a list of objects.
			se.Detail = string(body.Detail)
		}
		return se
	}
	se.Detail = strings.TrimSpace(string(raw))
	return se
}
