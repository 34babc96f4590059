package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/camuig/signal-desk/internal/desk"
	"github.com/camuig/signal-desk/internal/gateway"
	"github.com/camuig/signal-desk/internal/signals"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, signals.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, signals.ErrDuplicateTicker), errors.Is(err, desk.ErrNoDefaultDir):
		return http.StatusConflict
	case errors.Is(err, signals.ErrClosePrecondition),
		errors.Is(err, signals.ErrInvalidClosePrice),
		errors.Is(err, signals.ErrMissingCloseDate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, signals.ErrMissingTicker),
		errors.Is(err, gateway.ErrMalformedImport),
		errors.Is(err, desk.ErrUnknownCollection),
		errors.Is(err, desk.ErrInvalidTheme),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, desk.ErrDraftingDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		requestLogger(c, s.logger).Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
