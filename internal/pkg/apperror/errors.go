package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidState        ErrorCode = "INVALID_STATE"
	ErrCodeBudgetExceeded      ErrorCode = "BUDGET_EXCEEDED"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeDependencyFailure   ErrorCode = "DEPENDENCY_FAILURE"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeInvalidState, ErrCodeBudgetExceeded, ErrCodeInsufficientBalance, ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the error code of err, or ErrCodeInternal when err is not an AppError.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	return Code(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return Code(err) == ErrCodeForbidden
}

func IsValidation(err error) bool {
	return Code(err) == ErrCodeValidation
}

func IsInvalidState(err error) bool {
	return Code(err) == ErrCodeInvalidState
}

func IsConflict(err error) bool {
	return Code(err) == ErrCodeConflict
}

// Retryable reports whether the caller may retry the failed operation as-is.
// Only dependency failures qualify; every other kind needs a new precondition.
func Retryable(err error) bool {
	return Code(err) == ErrCodeDependencyFailure
}

var (
	ErrCampaignNotFound      = New(ErrCodeNotFound, "campaign not found")
	ErrBidNotFound           = New(ErrCodeNotFound, "bid not found")
	ErrDeliverableNotFound   = New(ErrCodeNotFound, "deliverable not found")
	ErrDisputeNotFound       = New(ErrCodeNotFound, "dispute not found")
	ErrWithdrawalNotFound    = New(ErrCodeNotFound, "withdrawal request not found")
	ErrPaymentMethodNotFound = New(ErrCodeNotFound, "payment method not found")
	ErrUserNotFound          = New(ErrCodeNotFound, "user not found")
	ErrUnauthorized          = New(ErrCodeUnauthorized, "authentication required")
	ErrForbidden             = New(ErrCodeForbidden, "insufficient permissions")
	ErrInvalidCredentials    = New(ErrCodeUnauthorized, "invalid credentials")
)
