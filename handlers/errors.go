package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weaveapp/weave/backend/go-services/internal/apperrors"
)

// statusFor maps repository errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrConnection):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}
