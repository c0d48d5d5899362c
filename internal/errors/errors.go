package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNetwork         ErrorType = "NETWORK"
	ErrTypeVerification    ErrorType = "VERIFICATION"
	ErrTypeExtraction      ErrorType = "EXTRACTION"
	ErrTypeUnknownDataType ErrorType = "UNKNOWN_DATA_TYPE"
	ErrTypeSchemaMismatch  ErrorType = "SCHEMA_MISMATCH"
	ErrTypeCast            ErrorType = "CAST"
	ErrTypeStorage         ErrorType = "STORAGE"
	ErrTypeConfig          ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf reports the ErrorType carried by err, or an empty string if err is
// not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}

// Helper functions for common error types

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewVerificationError creates a checksum verification error
func NewVerificationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeVerification, message, cause)
}

// NewExtractionError creates an archive extraction error
func NewExtractionError(message string, cause error) *AppError {
	return NewAppError(ErrTypeExtraction, message, cause)
}

// NewUnknownDataTypeError creates an error for an unregistered data type
func NewUnknownDataTypeError(dataType string) *AppError {
	return NewAppError(ErrTypeUnknownDataType, fmt.Sprintf("no schema registered for data type %q", dataType), nil)
}

// NewSchemaMismatchError creates an error for raw data missing a schema column
func NewSchemaMismatchError(message string) *AppError {
	return NewAppError(ErrTypeSchemaMismatch, message, nil)
}

// NewCastError creates a column cast error
func NewCastError(message string, cause error) *AppError {
	return NewAppError(ErrTypeCast, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
