package http

import (
	"errors"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// statusOf maps application errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrConflict),
		errors.Is(err, courier.ErrCourierAtCapacity):
		return http.StatusConflict
	case errs.IsValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an Error body. Unexpected errors are logged and their
// text is not exposed.
func (s *Server) fail(ctx echo.Context, err error) error {
	if errors.Is(err, commands.ErrNoCourierAvailable) {
		return ctx.JSON(http.StatusAccepted, NotAssigned{Assigned: false})
	}

	code := statusOf(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", ctx.Request().Method),
			zap.String("path", ctx.Path()),
			zap.Error(err))
		message = http.StatusText(code)
	}
	return ctx.JSON(code, Error{Code: code, Message: message})
}

// errorHandler renders echo's own errors (unknown route, bad binding,
// request validation) with the Error body.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		} else {
			logger.Error("unhandled error", zap.String("path", ctx.Path()), zap.Error(err))
		}

		if writeErr := ctx.JSON(code, Error{Code: code, Message: message}); writeErr != nil {
			logger.Warn("writing error response", zap.Error(writeErr))
		}
	}
}
