package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// APIResponse is the envelope every endpoint returns.
type APIResponse[T any] struct {
	Status    string    `json:"status"`
	Token     string    `json:"token,omitempty"`
	Message   string    `json:"message,omitempty"`
	Results   *int      `json:"results,omitempty"`
	Data      T         `json:"data,omitempty"`
	Error     any       `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func Success[T any](ctx *gin.Context, status int, data T, message string) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse[T]{
		Status:    StatusSuccess,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Message:   message,
		Data:      data,
	})
}

// WithToken answers with a freshly issued bearer token next to data.
func WithToken[T any](ctx *gin.Context, status int, token string, data T) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse[T]{
		Status:    StatusSuccess,
		Token:     token,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Data:      data,
	})
}

// List answers with a collection and its length.
func List[T any](ctx *gin.Context, items []T) {
	n := len(items)
	ctx.JSON(http.StatusOK, APIResponse[[]T]{
		Status:    StatusSuccess,
		Results:   &n,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Data:      items,
	})
}

// Error aborts the chain with a fail (4xx) or error (5xx) envelope.
func Error(ctx *gin.Context, status int, message string, details any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	s := StatusFail
	if status >= http.StatusInternalServerError {
		s = StatusError
	}
	ctx.AbortWithStatusJSON(status, APIResponse[any]{
		Status:    s,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Message:   message,
		Error:     details,
	})
}
