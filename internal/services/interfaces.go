package services

import (
	"context"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
)

// MatchingServiceInterface defines the interface for mentor matching
type MatchingServiceInterface interface {
	MatchMentors(ctx context.Context, userID string, limit int) (*models.MatchMentorsResponse, error)
}

// BookingServiceInterface defines the interface for booking operations
type BookingServiceInterface interface {
	BookSession(ctx context.Context, userID string, req *models.BookSessionRequest) (*models.Booking, error)
	ListBookings(ctx context.Context, user *models.UserSession) ([]*models.Booking, error)
	GetBooking(ctx context.Context, user *models.UserSession, bookingID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, user *models.UserSession, bookingID string) (*models.Booking, error)
	GetAvailableSlots(ctx context.Context, sessionID string) (*models.AvailableSlotsData, error)
	GetMentorBookedSlots(ctx context.Context, mentorID string) ([]models.BookedSlot, error)
	RequestPaymentSlipUpload(ctx context.Context, user *models.UserSession, bookingID, contentType string) (*models.PaymentSlipData, error)
}

// CandidateProvider supplies the active mentors considered for matching
type CandidateProvider interface {
	Get(ctx context.Context) ([]*models.MentorProfile, error)
}

// CandidateInvalidator drops cached candidates after a booking changes them
type CandidateInvalidator interface {
	Invalidate()
}

// MatchResultCache stores ranked results per student and limit
type MatchResultCache interface {
	Get(ctx context.Context, studentID string, limit int) ([]models.CompatibilityResult, error)
	Set(ctx context.Context, studentID string, limit int, results []models.CompatibilityResult) error
	InvalidateAll(ctx context.Context) error
}

// SlipPresigner issues upload URLs for payment slips
type SlipPresigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error)
}

// EventTrigger fires fire-and-forget webhooks
type EventTrigger interface {
	CallAsync(triggerURL, recordID string)
}
