package services_test

import (
	"context"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockProfileReader is a mock implementation of repository.ProfileReader
type MockProfileReader struct {
	mock.Mock
}

func (m *MockProfileReader) FindActiveMentorsWithSessions(ctx context.Context) ([]*models.MentorProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MentorProfile), args.Error(1)
}

func (m *MockProfileReader) FindStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudentProfile), args.Error(1)
}

func (m *MockProfileReader) FindMentorByUserID(ctx context.Context, userID string) (*models.MentorProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentorProfile), args.Error(1)
}

func (m *MockProfileReader) FindMentorSession(ctx context.Context, sessionID string) (*models.MentorSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MentorSession), args.Error(1)
}

// MockCandidateProvider is a mock implementation of services.CandidateProvider
type MockCandidateProvider struct {
	mock.Mock
}

func (m *MockCandidateProvider) Get(ctx context.Context) ([]*models.MentorProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MentorProfile), args.Error(1)
}

func (m *MockCandidateProvider) Invalidate() {
	m.Called()
}

// MockMatchResultCache is a mock implementation of services.MatchResultCache
type MockMatchResultCache struct {
	mock.Mock
}

func (m *MockMatchResultCache) Get(ctx context.Context, studentID string, limit int) ([]models.CompatibilityResult, error) {
	args := m.Called(ctx, studentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CompatibilityResult), args.Error(1)
}

func (m *MockMatchResultCache) Set(ctx context.Context, studentID string, limit int, results []models.CompatibilityResult) error {
	return m.Called(ctx, studentID, limit, results).Error(0)
}

func (m *MockMatchResultCache) InvalidateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockEnqueuer is a mock implementation of tasks.Enqueuer
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueReminder(ctx context.Context, booking *models.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

// MockEventTrigger is a mock implementation of services.EventTrigger
type MockEventTrigger struct {
	mock.Mock
}

func (m *MockEventTrigger) CallAsync(triggerURL, recordID string) {
	m.Called(triggerURL, recordID)
}

// MockSlipPresigner is a mock implementation of services.SlipPresigner
type MockSlipPresigner struct {
	mock.Mock
}

func (m *MockSlipPresigner) PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}
