package httpapi

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"evictioncrm/pkg/logger"
)

// RequestID keeps an inbound X-Request-ID or assigns a new one, and echoes it
// on the response.
func RequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(logger.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request().Header.Set(logger.RequestIDHeader, id)
		}
		c.Response().Header().Set(logger.RequestIDHeader, id)
		return next(c)
	}
}
