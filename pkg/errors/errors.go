package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeBadRequest     = "BAD_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeConflict       = "CONFLICT"
	CodeInternal       = "INTERNAL_ERROR"
	CodeTooManyRequest = "TOO_MANY_REQUESTS"
	CodeValidation     = "VALIDATION_ERROR"
	CodeStore          = "STORE_ERROR"
	CodeDecode         = "DECODE_ERROR"
	CodePushDispatch   = "PUSH_DISPATCH_FAILED"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

// Error renders "Message: cause" so wrapped store failures read like
// "Failed to send message: rpc error: ...".
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
		Err:     nil,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequest,
		Message: message,
		Status:  http.StatusTooManyRequests,
		Err:     nil,
	}
}

// Validation reports caller-supplied data that failed a local precondition.
// It is always returned before any store call is made.
func Validation(message string, err error) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// Store wraps a failed Firestore read, write or batch commit.
func Store(message string, err error) *AppError {
	return &AppError{
		Code:    CodeStore,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Decode reports a stored document that is missing fields or carries
// malformed values.
func Decode(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeDecode,
		Message: fmt.Sprintf("Malformed %s document", resource),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func PushDispatch(message string, err error) *AppError {
	return &AppError{
		Code:    CodePushDispatch,
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
