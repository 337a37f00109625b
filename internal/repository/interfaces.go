package repository

import (
	"context"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
)

// ProfileReader loads the profiles used by matching and booking
type ProfileReader interface {
	// FindActiveMentorsWithSessions returns active mentors in stable
	// insertion order, each with its active, unexpired sessions
	FindActiveMentorsWithSessions(ctx context.Context) ([]*models.MentorProfile, error)

	// FindStudentProfile resolves the student profile of an authenticated user
	FindStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error)

	// FindMentorByUserID resolves the mentor profile of an authenticated user
	FindMentorByUserID(ctx context.Context, userID string) (*models.MentorProfile, error)

	// FindMentorSession loads a session by ID regardless of its state
	FindMentorSession(ctx context.Context, sessionID string) (*models.MentorSession, error)
}

// BookingStore reads and writes bookings and their payments
type BookingStore interface {
	// FindConflictingBooking returns the non-cancelled booking holding the
	// slot, or nil when the slot is free
	FindConflictingBooking(ctx context.Context, sessionID string, slot time.Time) (*models.Booking, error)

	// CreateBookingWithPayment inserts the booking with a PENDING payment of
	// amount and bumps the session and mentor counters in one atomic unit.
	// A live booking for the same slot yields ErrSlotConflict.
	CreateBookingWithPayment(ctx context.Context, booking *models.Booking, amount float64) (*models.Booking, error)

	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListStudentBookings(ctx context.Context, studentID string) ([]*models.Booking, error)
	ListMentorBookings(ctx context.Context, mentorID string) ([]*models.Booking, error)

	// CancelBooking moves a PENDING or CONFIRMED booking to CANCELLED and
	// releases its slot. Other states yield ErrNotCancellable.
	CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error)

	// ListSessionBookings returns the non-cancelled bookings of a session
	ListSessionBookings(ctx context.Context, sessionID string) ([]*models.Booking, error)

	// ListMentorBookedSlots returns the occupied slots across a mentor's sessions
	ListMentorBookedSlots(ctx context.Context, mentorID string) ([]models.BookedSlot, error)

	// AttachPaymentSlip records the uploaded slip and marks the payment SUBMITTED
	AttachPaymentSlip(ctx context.Context, bookingID, slipKey string) (*models.Payment, error)
}

// Store is the full persistence contract implemented by every driver
type Store interface {
	ProfileReader
	BookingStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
