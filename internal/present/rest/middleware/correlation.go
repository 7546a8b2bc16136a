package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/totegamma/coa/internal/accelerator"
)

// CorrelationID resolves the request correlation id before the handler
// runs so that every log line and response carries it.
func CorrelationID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accelerator.CorrelationID(c)
		return next(c)
	}
}
