package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"

	"github.com/bassista/dockdesk/internal/logger"
	"github.com/bassista/dockdesk/internal/parser"
	"github.com/bassista/dockdesk/internal/runtime"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string `json:"error"`
	ExitCode *int   `json:"exit_code,omitempty"`
}

// statusFor maps an operation error to an HTTP status. The runtime's own
// failures are upstream failures, so they become 502.
func statusFor(err error) int {
	var cmdErr *runtime.CommandError
	var parseErr *parser.ParseError
	switch {
	case errdefs.IsNotFound(err):
		return http.StatusNotFound
	case errdefs.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errdefs.IsAlreadyExists(err), errdefs.IsConflict(err):
		return http.StatusConflict
	case errdefs.IsFailedPrecondition(err):
		return http.StatusPreconditionFailed
	case errdefs.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &cmdErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status and attaches it to the gin
// context for the error reporting middleware.
func respondError(c *gin.Context, component string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithComponent(component).Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		logger.WithComponent(component).Debugf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	_ = c.Error(err)

	body := ErrorResponse{Error: err.Error()}
	var cmdErr *runtime.CommandError
	if errors.As(err, &cmdErr) {
		code := cmdErr.ExitCode
		body.ExitCode = &code
	}
	c.AbortWithStatusJSON(status, body)
}
