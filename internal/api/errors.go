package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"whatsapp-notify/internal/errs"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errs.IsConfigError(err):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrTemplateNotFound), errors.Is(err, errs.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrNotificationDisabled):
		return http.StatusConflict
	case errors.Is(err, errs.ErrProvider), errors.Is(err, errs.ErrUpload):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
