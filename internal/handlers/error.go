package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"saj-gateway/internal/handlers/base"
	"saj-gateway/internal/saj"
	"saj-gateway/internal/token"
	"saj-gateway/internal/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const hiddenMessage = "An unexpected internal error occurred."

// UpstreamStatus maps a vendor application code to the HTTP status and
// user message the gateway answers with.
func UpstreamStatus(code int, msg string) (int, string) {
	switch code {
	case saj.CodeUnauthorized:
		return http.StatusUnauthorized, "Authentication failed - invalid token or expired session"
	case saj.CodeForbidden:
		return http.StatusForbidden, "Access forbidden - insufficient permissions"
	case saj.CodeBadParams:
		return http.StatusBadRequest, "Invalid request parameters"
	}
	if msg == "" {
		msg = "Unknown API error"
	}
	return http.StatusInternalServerError, msg
}

// NewHTTPErrorHandler returns the central echo error handler. In production
// internal error details are replaced by a generic message.
func NewHTTPErrorHandler(production bool, logger *zap.Logger) echo.HTTPErrorHandler {
	logger = logger.With(zap.String("component", "error_handler"))

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := translateError(err, production)
		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status_code", status),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", fields...)
		} else {
			logger.Info("Request rejected", fields...)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}

func translateError(err error, production bool) (int, map[string]interface{}) {
	label := http.StatusText(http.StatusInternalServerError)
	var appErr *utils.AppError
	if errors.As(err, &appErr) && appErr.Label != "" {
		label = appErr.Label
	}

	// Token failures come first: they may wrap an upstream application error.
	var authErr *token.AuthError
	if errors.As(err, &authErr) {
		return http.StatusInternalServerError, base.ErrorBody("Failed to get access token", authErr.Error())
	}

	var apiErr *saj.APIError
	if errors.As(err, &apiErr) {
		status, msg := UpstreamStatus(apiErr.Code, apiErr.Msg)
		return status, map[string]interface{}{
			"error":           "SAJ API Error",
			"message":         msg,
			"code":            apiErr.Code,
			"originalMessage": apiErr.Msg,
		}
	}

	var transportErr *saj.TransportError
	if errors.As(err, &transportErr) {
		if transportErr.StatusCode != 0 {
			return transportErr.StatusCode, map[string]interface{}{
				"error":   "SAJ API Error",
				"message": transportErr.Msg,
				"status":  transportErr.StatusCode,
			}
		}
		return http.StatusInternalServerError, base.ErrorBody(label, transportErr.Msg)
	}

	if appErr != nil {
		msg := appErr.Message
		if production && appErr.Code >= http.StatusInternalServerError {
			msg = hiddenMessage
		}
		return appErr.Code, base.ErrorBody(label, msg)
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, base.ErrorBody(http.StatusText(httpErr.Code), fmt.Sprint(httpErr.Message))
	}

	msg := err.Error()
	if production {
		msg = hiddenMessage
	}
	return http.StatusInternalServerError, base.ErrorBody(label, msg)
}
