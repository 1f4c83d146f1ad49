package utils

import (
	"net/http"
)

type AppError struct {
	Code    int    // HTTP status code (e.g., 404, 400, 500)
	Label   string // Machine-facing error field
	Message string // User-facing message
	err     error  // Internal-facing error for logging purposes
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.err
}

// NewBadRequestError creates a 400 Bad Request error.
func NewBadRequestError(label, message string, originalError ...error) *AppError {
	e := &AppError{
		Code:    http.StatusBadRequest,
		Label:   label,
		Message: message,
	}
	if len(originalError) > 0 {
		e.err = originalError[0]
	}
	return e
}

// NewInternalServerError creates a 500 Internal Server Error. The message
// of originalError is only shown outside production.
func NewInternalServerError(label string, originalError error) *AppError {
	message := ""
	if originalError != nil {
		message = originalError.Error()
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Label:   label,
		Message: message,
		err:     originalError,
	}
}
