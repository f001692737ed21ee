package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrOrderInactive      ErrorType = "ORDER_INACTIVE"
	ErrTrancheNotReady    ErrorType = "TRANCHE_NOT_READY"
	ErrInsufficientAnchor ErrorType = "INSUFFICIENT_ANCHOR"
	ErrBadOracle          ErrorType = "BAD_ORACLE"
	ErrInsufficientFunds  ErrorType = "INSUFFICIENT_FUNDS"
	ErrInvalidRequest     ErrorType = "INVALID_REQUEST"
	ErrUnauthorized       ErrorType = "UNAUTHORIZED"
	ErrNotFound           ErrorType = "NOT_FOUND"
	ErrConflict           ErrorType = "CONFLICT"
	ErrInternal           ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func Newf(errType ErrorType, format string, args ...any) *AppError {
	return New(errType, fmt.Sprintf(format, args...), nil)
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func NewNotFound(msg string) *AppError {
	return New(ErrNotFound, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// Is reports whether err carries the given application error type.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrOrderInactive, ErrInsufficientAnchor, ErrInsufficientFunds, ErrConflict:
		return http.StatusConflict
	case ErrTrancheNotReady:
		return http.StatusTooEarly
	case ErrBadOracle:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrOrderInactive:
		return "Order is completed or was never activated; pick another order."
	case ErrTrancheNotReady:
		return "Wait for the tranche interval to elapse, then retry."
	case ErrInsufficientAnchor:
		return "Retry once the settlement reserve is replenished, or request a smaller payout."
	case ErrBadOracle:
		return "Retry once the price feed recovers."
	case ErrInsufficientFunds:
		return "Fund the source balance before retrying."
	default:
		return ""
	}
}
