package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mentorhub/mentorhub-api/internal/services"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends an error JSON response and attaches err for the request log
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondErrorWithDetails sends an error response with an additional details field
func respondErrorWithDetails(c *gin.Context, status int, message string, details any, err error) { //nolint:unparam
	attachError(c, err)
	c.JSON(status, gin.H{"success": false, "error": message, "details": details})
}

// respondServiceError maps a service error to its HTTP status. Unknown errors
// become a 500 carrying fallback only.
func respondServiceError(c *gin.Context, err error, fallback string) {
	var slotErr *services.SlotError

	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
	case errors.As(err, &slotErr):
		respondError(c, http.StatusBadRequest, slotErr.Reason, err)
	case errors.Is(err, services.ErrSlotConflict):
		respondError(c, http.StatusConflict, services.MsgSlotConflict, err)
	case errors.Is(err, services.ErrInvalidLimit):
		respondError(c, http.StatusBadRequest, "limit must be a positive integer", err)
	case errors.Is(err, services.ErrStorageUnavailable):
		respondError(c, http.StatusServiceUnavailable, "Payment slip upload is not available", err)
	case errors.Is(err, apperrors.ErrUnavailable):
		respondError(c, http.StatusServiceUnavailable, "Service temporarily unavailable", err)
	case errors.Is(err, apperrors.ErrAccessDenied):
		respondError(c, http.StatusForbidden, "Access denied", err)
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(c, http.StatusNotFound, capitalize(err.Error()), err)
	case errors.Is(err, services.ErrBookingNotCancellable):
		respondError(c, http.StatusConflict, "This booking can no longer be cancelled", err)
	case errors.Is(err, services.ErrPaymentLocked):
		respondError(c, http.StatusConflict, "This payment no longer accepts a slip", err)
	case errors.Is(err, apperrors.ErrInvalidInput):
		if field := apperrors.FieldOf(err); field != "" {
			respondErrorWithDetails(c, http.StatusBadRequest, "Invalid input",
				[]ValidationError{{Field: field, Message: err.Error()}}, err)
			return
		}
		respondError(c, http.StatusBadRequest, "Invalid input", err)
	default:
		respondError(c, http.StatusInternalServerError, fallback, err)
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
