package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumora/eduhub-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	var field string
	if err != nil {
		msg = err.Error()
		var ae *apperr.Error
		if errors.As(err, &ae) {
			field = ae.Field
		}
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			Field:   field,
		},
	})
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status, code = http.StatusBadRequest, "validation_failed"
	case apperr.KindNotFound:
		status, code = http.StatusNotFound, "not_found"
	case apperr.KindPermission:
		status, code = http.StatusForbidden, "forbidden"
	case apperr.KindCycle:
		status, code = http.StatusConflict, "cycle_rejected"
	case apperr.KindStorage:
		status, code = http.StatusInternalServerError, "storage_failed"
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
