package response

import (
	"errors"
	"net/http"

	"prepaid-wallet-service/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response shape for every endpoint. Error carries a
// stable taxonomy code (CLIENT_EXISTS, CLIENT_NOT_FOUND, WALLET_NOT_FOUND,
// INVALID_TOKEN, INSUFFICIENT_FUNDS, INTERNAL_ERROR) and is empty on success.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 success envelope.
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 success envelope.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error envelope. It checks if err is an *apperror.AppError
// and maps its code and status, otherwise returns a generic 500. Wrapped
// internal causes are never echoed to the caller.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Envelope{
			Success: false,
			Message: appErr.Message,
			Error:   appErr.Code,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Message: "Internal server error",
		Error:   "INTERNAL_ERROR",
	})
}
