package base

import (
	"strings"

	"saj-gateway/internal/utils"

	"github.com/labstack/echo/v4"
)

// ExtractPaginationParams reads limit and offset from the query.
func ExtractPaginationParams(c echo.Context, defaultLimit int) utils.PaginationParams {
	return utils.GetPaginationParams(c.QueryParam("limit"), c.QueryParam("offset"), defaultLimit)
}

// ExtractOptionalIntParam reads a positive integer query parameter.
func ExtractOptionalIntParam(c echo.Context, paramName string, defaultValue int) int {
	return utils.GetIntOrDefault(c.QueryParam(paramName), defaultValue)
}

// ExtractRequiredQuery returns the trimmed values of the named query
// parameters and the names of those that are missing.
func ExtractRequiredQuery(c echo.Context, names ...string) (map[string]string, []string) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v := strings.TrimSpace(c.QueryParam(name))
		if v == "" {
			missing = append(missing, name)
		}
		values[name] = v
	}
	return values, missing
}
