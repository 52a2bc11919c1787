package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobpilot/backend/auth"
	"github.com/jobpilot/backend/interview"
	"github.com/jobpilot/backend/models"
	"github.com/jobpilot/backend/workflow"
)

// statusFor maps the error taxonomy to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrMissingCV),
		errors.Is(err, workflow.ErrInterviewActive),
		errors.Is(err, interview.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, models.ErrTransportFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the standard error body for err
func respondError(c *gin.Context, message string, err error) {
	code := statusFor(err)
	c.JSON(code, models.ErrorResponse{
		Error:   message,
		Code:    code,
		Details: err.Error(),
	})
}

func badRequest(c *gin.Context, message string, err error) {
	resp := models.ErrorResponse{
		Error: message,
		Code:  http.StatusBadRequest,
	}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
