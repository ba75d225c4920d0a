package types

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the ledger, the policy and the services.
// Callers wrap these with fmt.Errorf("...: %w") and test with errors.Is.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrForbidden          = errors.New("forbidden")
)

// CustomError carries an HTTP status and an error type through the fiber error handler
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// InvalidArgument wraps ErrInvalidArgument with a formatted detail
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
