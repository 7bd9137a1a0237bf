package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Domain errors ----
// These are expected outcomes of normal operation and carry stable codes
// that clients can branch on.

func ErrClientExists() *AppError {
	return New("CLIENT_EXISTS", "Client already exists", http.StatusConflict)
}

func ErrClientNotFound() *AppError {
	return New("CLIENT_NOT_FOUND", "Client not found", http.StatusNotFound)
}

func ErrWalletNotFound() *AppError {
	return New("WALLET_NOT_FOUND", "Wallet not found", http.StatusNotFound)
}

// ErrInvalidToken covers both a wrong token and an expired one. The two cases
// are deliberately collapsed so a caller cannot tell which half of the guess
// was wrong.
func ErrInvalidToken() *AppError {
	return New("INVALID_TOKEN", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrInsufficientFunds() *AppError {
	return New("INSUFFICIENT_FUNDS", "Insufficient funds", http.StatusPaymentRequired)
}

// ---- Validation & system errors ----

func ErrInvalidAmount() *AppError {
	return New("INVALID_REQUEST", "Amount must be greater than zero", http.StatusBadRequest)
}

// Validation returns a request-shape validation error.
func Validation(message string) *AppError {
	return New("INVALID_REQUEST", message, http.StatusBadRequest)
}

// InternalError wraps an unexpected failure. The cause is kept for logging
// and never echoed to the caller.
func InternalError(err error) *AppError {
	return Wrap("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError, err)
}
