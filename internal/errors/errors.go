package errors

import "fmt"

// ErrorCode represents a labtrail error code.
type ErrorCode string

const (
	ErrAmbiguousAddressing ErrorCode = "AMBIGUOUS_ADDRESSING" // 400
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrInvalidDate         ErrorCode = "INVALID_DATE"         // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"       // 404
	ErrConflict            ErrorCode = "CONFLICT"             // 409
	ErrNotesTooLarge       ErrorCode = "NOTES_TOO_LARGE"      // 413
	ErrInternal            ErrorCode = "INTERNAL"             // 500
)

// TrailError represents a structured error with code, status, and details.
type TrailError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *TrailError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAmbiguousAddressing creates a 400 error for when two addressing modes are mixed.
func NewAmbiguousAddressing() *TrailError {
	return &TrailError{
		Code:    ErrAmbiguousAddressing,
		Status:  400,
		Message: "cannot specify both id and date; use one addressing mode",
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TrailError {
	return &TrailError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidDate creates a 400 error for a date that does not parse as YYYY-MM-DD.
func NewInvalidDate(field, value string) *TrailError {
	return &TrailError{
		Code:    ErrInvalidDate,
		Status:  400,
		Message: fmt.Sprintf("%s must be a calendar date in YYYY-MM-DD form, got %q", field, value),
		Details: map[string]any{"field": field, "value": value},
	}
}

// NewNotFound creates a 404 error for when a record cannot be found.
func NewNotFound(identifier string) *TrailError {
	return &TrailError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("record not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *TrailError {
	return &TrailError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *TrailError {
	return &TrailError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewNotesTooLarge creates a 413 error when report notes exceed the size limit.
func NewNotesTooLarge(max, actual int) *TrailError {
	return &TrailError{
		Code:    ErrNotesTooLarge,
		Status:  413,
		Message: fmt.Sprintf("notes exceed maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TrailError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TrailError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a TrailError with the given code.
func Is(err error, code ErrorCode) bool {
	if tErr, ok := err.(*TrailError); ok {
		return tErr.Code == code
	}
	return false
}
