package catalog

import "fmt"

// Error codes for catalog operations.
const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeScopeInactive   = "SCOPE_INACTIVE"
	ErrCodeVersionConflict = "VERSION_CONFLICT"
	ErrCodeUnknownCasing   = "UNKNOWN_CASING"
)

// CodedError is an error with an associated stable code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// ErrVersionConflict signals that a compare-and-swap write lost the race.
var ErrVersionConflict = &CodedError{
	Code:    ErrCodeVersionConflict,
	Message: "record version conflict",
}
