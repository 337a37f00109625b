package services

import (
	"fmt"

	"github.com/mentorhub/mentorhub-api/internal/availability"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
)

var (
	ErrUnauthenticated        = fmt.Errorf("authentication required: %w", apperrors.ErrUnauthorized)
	ErrForbidden              = apperrors.AccessDeniedError("not allowed")
	ErrStudentProfileNotFound = apperrors.NotFoundError("student profile")
	ErrMentorProfileNotFound  = apperrors.NotFoundError("mentor profile")
	ErrSessionNotFound        = apperrors.NotFoundError("mentor session")
	ErrBookingNotFound        = apperrors.NotFoundError("booking")
	ErrInvalidSlot            = apperrors.InvalidInputError("scheduledDateTime", "slot not available")
	ErrInvalidLimit           = apperrors.InvalidInputError("limit", "must be a positive integer")
	ErrSlotConflict           = apperrors.ConflictError("slot already booked")
	ErrBookingNotCancellable  = apperrors.ConflictError("booking cannot be cancelled")
	ErrPaymentLocked          = apperrors.ConflictError("payment no longer accepts a slip")
	ErrStorageUnavailable     = apperrors.UnavailableError("payment slip storage")
)

// Messages shown to clients for rejected bookings
const (
	MsgSessionUnavailable = "This session is not currently available for booking"
	MsgSlotNotOffered     = "Selected time is not one of the session's available slots"
	MsgSlotInPast         = availability.MsgSlotInPast
	MsgLeadTime           = availability.MsgLeadTime
	MsgSlotConflict       = "This time slot is already booked. Please choose another slot."
)

// SlotError explains why a requested slot was rejected
type SlotError struct {
	Reason string
}

func (e *SlotError) Error() string { return e.Reason }

func (e *SlotError) Unwrap() error { return ErrInvalidSlot }

func invalidSlot(reason string) error {
	return &SlotError{Reason: reason}
}
