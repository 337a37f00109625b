package handlers

import (
	"context"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockMatchingService struct {
	mock.Mock
}

func (m *MockMatchingService) MatchMentors(ctx context.Context, userID string, limit int) (*models.MatchMentorsResponse, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchMentorsResponse), args.Error(1)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) BookSession(ctx context.Context, userID string, req *models.BookSessionRequest) (*models.Booking, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context, user *models.UserSession) ([]*models.Booking, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, user *models.UserSession, bookingID string) (*models.Booking, error) {
	args := m.Called(ctx, user, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, user *models.UserSession, bookingID string) (*models.Booking, error) {
	args := m.Called(ctx, user, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) GetAvailableSlots(ctx context.Context, sessionID string) (*models.AvailableSlotsData, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AvailableSlotsData), args.Error(1)
}

func (m *MockBookingService) GetMentorBookedSlots(ctx context.Context, mentorID string) ([]models.BookedSlot, error) {
	args := m.Called(ctx, mentorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookedSlot), args.Error(1)
}

func (m *MockBookingService) RequestPaymentSlipUpload(ctx context.Context, user *models.UserSession, bookingID, contentType string) (*models.PaymentSlipData, error) {
	args := m.Called(ctx, user, bookingID, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentSlipData), args.Error(1)
}
