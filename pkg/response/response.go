package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/qy-8/gamechat-app/pkg/errcode"
)

// Status values of the response envelope
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the uniform API envelope: every handler returns it, success or not.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a success response with HTTP 200
func Success(ctx context.Context, c *app.RequestContext, data interface{}, message string) {
	if message == "" {
		message = "success"
	}
	c.JSON(http.StatusOK, Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response; the HTTP status follows the error category.
func Error(ctx context.Context, c *app.RequestContext, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	var e *errcode.Error
	if errors.As(err, &e) {
		status = e.Status
		msg = e.Msg
	}

	c.JSON(status, Response{
		Status:  StatusError,
		Message: msg,
	})
}

// ErrorWithCode sends an error response for a known business error
func ErrorWithCode(ctx context.Context, c *app.RequestContext, e *errcode.Error) {
	c.JSON(e.Status, Response{
		Status:  StatusError,
		Message: e.Msg,
	})
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(ctx context.Context, c *app.RequestContext, msg string) {
	if msg == "" {
		msg = "unauthorized"
	}
	c.JSON(http.StatusUnauthorized, Response{
		Status:  StatusError,
		Message: msg,
	})
}

// Forbidden sends a 403 forbidden response
func Forbidden(ctx context.Context, c *app.RequestContext, msg string) {
	if msg == "" {
		msg = "forbidden"
	}
	c.JSON(http.StatusForbidden, Response{
		Status:  StatusError,
		Message: msg,
	})
}
