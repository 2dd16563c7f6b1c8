package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"evictioncrm/internal/casework"
	"evictioncrm/internal/crm"
	"evictioncrm/pkg/domain"
	"evictioncrm/pkg/logger"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var he *echo.HTTPError
	var rv domain.RuleViolationError
	switch {
	case errors.As(err, &he):
		return he.Code
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case crm.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &rv):
		return http.StatusUnprocessableEntity
	case errors.Is(err, casework.ErrTerminalStage):
		return http.StatusConflict
	case errors.Is(err, casework.ErrNoUploader):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := statusFor(err)
	body := echo.Map{"error": err.Error()}
	var he *echo.HTTPError
	var rv domain.RuleViolationError
	switch {
	case errors.As(err, &he):
		body["error"] = http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok {
			body["error"] = msg
		}
	case errors.As(err, &rv):
		body["violations"] = rv.Result.Violations
	case status == http.StatusInternalServerError:
		logger.FromContext(c).Error("request failed", zap.Error(err))
		body["error"] = http.StatusText(status)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		h.logger.Warn("write error response", zap.Error(err))
	}
}
