package repository

import (
	"github.com/mentorhub/mentorhub-api/internal/models"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
)

var (
	// ErrNotFound is returned when a requested row or document does not exist
	ErrNotFound = apperrors.NotFoundError("record")

	// ErrSlotConflict is returned when another live booking already holds the slot
	ErrSlotConflict = apperrors.ConflictError("slot already booked")

	// ErrNotCancellable is returned when a booking is not in a cancellable state
	ErrNotCancellable = apperrors.ConflictError("booking cannot be cancelled")

	// ErrPaymentLocked is returned when the payment no longer accepts a slip
	ErrPaymentLocked = apperrors.ConflictError("payment no longer accepts a slip")
)

// IsCancellable reports whether a booking in status may be cancelled
func IsCancellable(status models.BookingStatus) bool {
	return status == models.BookingPending || status == models.BookingConfirmed
}

// AcceptsSlip reports whether a payment in status may receive a slip.
// A rejected slip can be replaced; a verified one cannot.
func AcceptsSlip(status models.PaymentStatus) bool {
	return status != models.PaymentVerified
}
