package models

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures raised by the segmentation core.
type ErrorType string

const (
	ErrorTypeVideoOpen  ErrorType = "video_open_error"
	ErrorTypeParse      ErrorType = "parse_error"
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
)

// AppError is a typed error. Err, when set, is the underlying cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewVideoOpenError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeVideoOpen, Message: message, Err: err}
}

func NewParseError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeParse, Message: message, Err: err}
}

func NewValidationError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message, Err: err}
}

func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message, Err: err}
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsVideoOpen reports whether err (or any error it wraps) is a video open failure.
func IsVideoOpen(err error) bool { return isType(err, ErrorTypeVideoOpen) }

// IsParse reports whether err is a caption or timestamp parse failure.
func IsParse(err error) bool { return isType(err, ErrorTypeParse) }

// IsValidation reports whether err is an evaluation validation failure.
func IsValidation(err error) bool { return isType(err, ErrorTypeValidation) }

// IsNotFound reports whether err is a missing-input failure.
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }
