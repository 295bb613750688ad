package resource

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned before any call that needs a token when the
// session holds none.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrNotFound is returned when an operation targets an id absent from the
// in-memory collection.
var ErrNotFound = errors.New("record not found")

var errMissingID = errors.New("response missing id")

// ValidationError reports invalid input detected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// OperationError is the caller-facing form of a remote failure. Its message
// is generic; the cause stays reachable through Unwrap for logging.
type OperationError struct {
	Op       string
	Resource string
	Err      error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("unable to %s %s", e.Op, e.Resource)
}

func (e *OperationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
