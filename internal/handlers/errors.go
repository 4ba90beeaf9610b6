package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexabank/nexabank_ledger/internal/apperrors"
)

// statusForError maps error sentinels to HTTP status codes. Business
// rejections (insufficient funds, frozen account) are 422: the request was
// valid, the domain said no.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrAccountInactive), errors.Is(err, apperrors.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrVersionConflict), errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the uniform error body: a message plus the stable
// machine-readable kind clients branch on.
func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{
		"error":     err.Error(),
		"errorKind": apperrors.Kind(err),
	})
}
