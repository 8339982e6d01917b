package handler

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"taskdesk/internal/errors"
)

// respondError converts a domain error into an echo HTTP error carrying the JSON envelope.
func respondError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

// ToErrorResponse returns the status and envelope for any error reaching the request boundary.
func ToErrorResponse(err error) (int, errors.ErrorResponse) {
	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		if resp, ok := he.Message.(errors.ErrorResponse); ok {
			return he.Code, resp
		}
		message := http.StatusText(he.Code)
		if he.Code < http.StatusInternalServerError {
			message = fmt.Sprint(he.Message)
		}
		return he.Code, errors.ErrorResponse{
			Success: false,
			Message: message,
			Code:    codeForStatus(he.Code),
		}
	}
	httpErr := errors.MapErrorToHTTP(err)
	return httpErr.StatusCode, httpErr.ToErrorResponse()
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return errors.KindValidation.String()
	case http.StatusUnauthorized:
		return errors.KindUnauthorized.String()
	case http.StatusForbidden:
		return errors.KindForbidden.String()
	case http.StatusNotFound:
		return errors.KindNotFound.String()
	case http.StatusConflict:
		return errors.KindConflict.String()
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return errors.KindInternal.String()
		}
		return "ERROR"
	}
}

// HTTPErrorHandler renders every error as the JSON envelope. 5xx causes are logged, never returned.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := ToErrorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"error", err,
				"method", c.Request().Method,
				"path", c.Path(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
		}
		if status == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, resp)
		}
		if writeErr != nil {
			logger.ErrorContext(c.Request().Context(), "write error response", "error", writeErr)
		}
	}
}
