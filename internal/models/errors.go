package models

import (
	"errors"
	"fmt"
)

// Common error types
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrConflict      = errors.New("operation conflicts with current state")
	ErrDeclined      = errors.New("payment declined")
)

// Error codes carried by AppError
const (
	CodeInvalidInput   = "INVALID_INPUT"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodePaymentDecline = "PAYMENT_DECLINED"
	CodePaymentFailed  = "PAYMENT_FAILED"
)

// AppError represents an application-level error with context
type AppError struct {
	Code    string
	Message string
	// Type is the gateway error class for payment errors
	Type string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrInvalidInput creates a validation error
func ErrInvalidInput(message string) error {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

// ErrNotFoundWithMsg creates a not found error with custom message
func ErrNotFoundWithMsg(message string) error {
	return &AppError{
		Code:    CodeNotFound,
		Message: message,
		Err:     ErrNotFound,
	}
}

// ErrConflictWithMsg creates a conflict error with custom message
func ErrConflictWithMsg(message string) error {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Err:     ErrConflict,
	}
}

// ErrPaymentDeclined creates a recoverable card or validation class payment error
func ErrPaymentDeclined(errorType, message string) error {
	return &AppError{
		Code:    CodePaymentDecline,
		Message: message,
		Type:    errorType,
		Err:     ErrDeclined,
	}
}

// ErrPaymentFailed creates an unexpected payment error
func ErrPaymentFailed(message string, err error) error {
	return &AppError{
		Code:    CodePaymentFailed,
		Message: message,
		Type:    GatewayErrorAPI,
		Err:     err,
	}
}
