package base

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the JSON error shape: a machine field and a human field.
func ErrorBody(label, message string) map[string]interface{} {
	body := map[string]interface{}{"error": label}
	if message != "" {
		body["message"] = message
	}
	return body
}

// SendFailure answers with success=false, as the device probe and manual
// add endpoints do.
func SendFailure(c echo.Context, statusCode int, label, message string) error {
	body := ErrorBody(label, message)
	body["success"] = false
	return c.JSON(statusCode, body)
}

// SendSuccess merges data into a success=true body.
func SendSuccess(c echo.Context, data map[string]interface{}) error {
	body := map[string]interface{}{"success": true}
	for k, v := range data {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}
