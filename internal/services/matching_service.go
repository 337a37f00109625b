package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/internal/cache"
	"github.com/mentorhub/mentorhub-api/internal/matching"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MatchingService ranks mentors for a student
type MatchingService struct {
	profiles   repository.ProfileReader
	candidates CandidateProvider
	results    MatchResultCache
	config     *config.Config
	now        func() time.Time
}

var _ MatchingServiceInterface = (*MatchingService)(nil)

// NewMatchingService creates a new MatchingService. results may be nil when
// no Redis is configured.
func NewMatchingService(profiles repository.ProfileReader, candidates CandidateProvider, results MatchResultCache, cfg *config.Config) *MatchingService {
	return &MatchingService{
		profiles:   profiles,
		candidates: candidates,
		results:    results,
		config:     cfg,
		now:        time.Now,
	}
}

// MatchMentors returns the best mentors for the student owned by userID
func (s *MatchingService) MatchMentors(ctx context.Context, userID string, limit int) (*models.MatchMentorsResponse, error) {
	start := time.Now()

	limit, err := s.normalizeLimit(limit)
	if err != nil {
		metrics.MatchRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var (
		student    *models.StudentProfile
		candidates []*models.MentorProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.FindStudentProfile(gctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStudentProfileNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load student profile: %w", err)
		}
		student = p
		return nil
	})
	g.Go(func() error {
		c, err := s.candidates.Get(gctx)
		if err != nil {
			return fmt.Errorf("failed to load mentor candidates: %w", err)
		}
		candidates = c
		return nil
	})
	if err := g.Wait(); err != nil {
		status := "error"
		if errors.Is(err, ErrStudentProfileNotFound) {
			status = "not_found"
		}
		metrics.MatchRequests.WithLabelValues(status).Inc()
		return nil, err
	}

	matches, cached := s.cachedMatches(ctx, student.ID, limit)
	if !cached {
		matches = matching.Rank(student, candidates, limit)
		for i := range matches {
			matches[i].AvailableSessions = availableSessions(matches[i].Mentor)
		}
		s.storeMatches(ctx, student.ID, limit, matches)
	}

	duration := metrics.MeasureDuration(start)
	metrics.MatchDuration.Observe(duration)
	metrics.MatchResultsReturned.Observe(float64(len(matches)))
	metrics.MatchRequests.WithLabelValues("success").Inc()

	logger.Info("Mentors matched",
		zap.String("student_id", student.ID),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
		zap.Bool("cached", cached),
		zap.Float64("duration", duration))

	resp := models.NewMatchMentorsResponse(matches, s.now())
	return &resp, nil
}

func (s *MatchingService) normalizeLimit(limit int) (int, error) {
	defaultLimit, maxLimit := matching.DefaultLimit, 50
	if s.config != nil {
		if s.config.Booking.MatchLimitDefault > 0 {
			defaultLimit = s.config.Booking.MatchLimitDefault
		}
		if s.config.Booking.MatchLimitMax > 0 {
			maxLimit = s.config.Booking.MatchLimitMax
		}
	}
	switch {
	case limit < 0:
		return 0, ErrInvalidLimit
	case limit == 0:
		return defaultLimit, nil
	case limit > maxLimit:
		return maxLimit, nil
	default:
		return limit, nil
	}
}

func (s *MatchingService) cachedMatches(ctx context.Context, studentID string, limit int) ([]models.CompatibilityResult, bool) {
	if s.results == nil {
		return nil, false
	}
	matches, err := s.results.Get(ctx, studentID, limit)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn("Match cache read failed", zap.Error(err))
		}
		return nil, false
	}
	return matches, true
}

func (s *MatchingService) storeMatches(ctx context.Context, studentID string, limit int, matches []models.CompatibilityResult) {
	if s.results == nil {
		return
	}
	if err := s.results.Set(ctx, studentID, limit, matches); err != nil {
		logger.Warn("Match cache write failed", zap.Error(err))
	}
}

func availableSessions(mentor *models.MentorProfile) []models.MentorSession {
	if mentor == nil || len(mentor.Sessions) == 0 {
		return []models.MentorSession{}
	}
	sessions := make([]models.MentorSession, len(mentor.Sessions))
	copy(sessions, mentor.Sessions)
	return sessions
}
