package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

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

// Success writes a success envelope and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes an error envelope, aborts the handler chain, and returns it.
func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
	ctx.AbortWithStatusJSON(status, resp)
	return resp
}

// AuthRedirect is the body of a successful sign-up, sign-in or sign-out.
type AuthRedirect struct {
	RedirectURL string `json:"redirectUrl"`
}

// AuthFailure is the body of a rejected sign-up or sign-in.
type AuthFailure struct {
	Error string `json:"error"`
}

func Redirect(ctx *gin.Context, url string) {
	ctx.JSON(http.StatusOK, AuthRedirect{RedirectURL: url})
}

func Fail(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, AuthFailure{Error: message})
}
