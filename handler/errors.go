package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/service"
	"github.com/tieubaoca/studytool-be/types"
)

// statusFor maps domain errors to HTTP status codes. It is the only place
// that does so.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrNoExtractableContent),
		errors.Is(err, types.ErrDecode),
		errors.Is(err, types.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrGenerationParse):
		return http.StatusBadGateway
	case errors.Is(err, types.ErrGenerationUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusServiceUnavailable:
		return "the AI service is unavailable, please try again later"
	case http.StatusBadGateway:
		return "the AI service returned output that could not be used"
	}
	var stageErr *service.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Err.Error()
	}
	return err.Error()
}

func respondError(c *gin.Context, log *logger.Logger, err error) {
	if errors.Is(err, context.Canceled) && c.Request.Context().Err() != nil {
		// client went away; nobody reads the body
		c.Status(499)
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, types.ErrorResponse{Error: messageFor(status, err)})
}
