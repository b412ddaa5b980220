// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the Gin context key read into APIResponse.RequestID.
const RequestIDKey = "request_id"

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// Success writes a successful envelope carrying data and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now().UTC(),
		RequestID: ctx.GetString(RequestIDKey),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes a failed envelope; err usually holds field details.
func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	resp := build[T](ctx, status, message, err)
	ctx.JSON(resp.Status, resp)
	return resp
}

// Abort is Error for middleware: the rest of the chain is skipped.
func Abort(ctx *gin.Context, status int, message string, err interface{}) {
	resp := build[any](ctx, status, message, err)
	ctx.AbortWithStatusJSON(resp.Status, resp)
}

func build[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now().UTC(),
		RequestID: ctx.GetString(RequestIDKey),
		Success:   false,
		Message:   message,
		Error:     err,
	}
}
