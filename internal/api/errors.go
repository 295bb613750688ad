package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is returned for non-2xx responses.
type Error struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Detail describes the failed request for logs.
func (e *Error) Detail() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
