package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"github.com/mentorhub/mentorhub-api/pkg/retry"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// CandidateSource loads the active mentors with their bookable sessions
type CandidateSource interface {
	FindActiveMentorsWithSessions(ctx context.Context) ([]*models.MentorProfile, error)
}

const (
	candidatesKey     = "candidates:all"
	candidateMetaKey  = "candidates:metadata"
	candidateCacheTag = "candidates"
	cacheCheckPeriod  = 10 * time.Second
	refreshTimeout    = 30 * time.Second
)

// CacheMetadata stores cache-wide information
type CacheMetadata struct {
	LastRefreshTime time.Time
	MentorCount     int
}

// CandidateCache keeps the matching candidate set in process memory. Reads
// never wait on a background refresh; a miss after invalidation loads
// synchronously from the source.
type CandidateCache struct {
	cache       *gocache.Cache
	source      CandidateSource
	mu          sync.RWMutex
	refreshing  bool
	ready       bool
	ttl         time.Duration
	lastRefresh time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewCandidateCache creates a candidate cache refreshed every ttlSeconds
func NewCandidateCache(source CandidateSource, ttlSeconds int) *CandidateCache {
	if ttlSeconds <= 0 {
		ttlSeconds = 300
	}
	return &CandidateCache{
		cache:  gocache.New(gocache.NoExpiration, cacheCheckPeriod),
		source: source,
		ttl:    time.Duration(ttlSeconds) * time.Second,
		stop:   make(chan struct{}),
	}
}

// Initialize performs the initial load (blocking) and starts the refresh loop.
// Call it during startup before accepting requests.
func (cc *CandidateCache) Initialize(ctx context.Context) error {
	logger.Info("Initializing candidate cache...")
	startTime := time.Now()

	mentors, err := retry.DoWithResult(ctx, retry.CacheWarmupConfig(), "candidate_cache_warmup",
		func() ([]*models.MentorProfile, error) {
			return cc.source.FindActiveMentorsWithSessions(ctx)
		})
	if err != nil {
		logger.Error("Failed to initialize candidate cache", zap.Error(err))
		return fmt.Errorf("failed to initialize candidate cache: %w", err)
	}
	cc.populate(mentors)

	cc.mu.Lock()
	cc.ready = true
	cc.mu.Unlock()

	logger.Info("Candidate cache initialized successfully",
		zap.Int("count", len(mentors)),
		zap.Duration("duration", time.Since(startTime)))

	go cc.schedulePeriodicRefresh()
	return nil
}

// IsReady returns true once the initial load succeeded
func (cc *CandidateCache) IsReady() bool {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.ready
}

// LastRefresh returns when the candidate set was last loaded
func (cc *CandidateCache) LastRefresh() time.Time {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.lastRefresh
}

// Get returns the cached candidates, loading them on a miss
func (cc *CandidateCache) Get(ctx context.Context) ([]*models.MentorProfile, error) {
	if data, found := cc.cache.Get(candidatesKey); found {
		if mentors, ok := data.([]*models.MentorProfile); ok {
			metrics.CacheHits.WithLabelValues(candidateCacheTag).Inc()
			return mentors, nil
		}
		logger.Error("Invalid candidate cache data type")
		cc.cache.Delete(candidatesKey)
	}

	metrics.CacheMisses.WithLabelValues(candidateCacheTag).Inc()

	mentors, err := cc.source.FindActiveMentorsWithSessions(ctx)
	if err != nil {
		return nil, err
	}
	cc.populate(mentors)
	return mentors, nil
}

// Invalidate drops the cached set. Called after bookings change session
// counters or availability.
func (cc *CandidateCache) Invalidate() {
	cc.cache.Delete(candidatesKey)
	logger.Debug("Candidate cache invalidated")
}

// Stop ends the background refresh loop
func (cc *CandidateCache) Stop() {
	cc.stopOnce.Do(func() { close(cc.stop) })
}

// GetMetadata returns cache metadata
func (cc *CandidateCache) GetMetadata() (*CacheMetadata, error) {
	data, found := cc.cache.Get(candidateMetaKey)
	if !found {
		return nil, fmt.Errorf("metadata not found")
	}
	metadata, ok := data.(*CacheMetadata)
	if !ok {
		return nil, fmt.Errorf("invalid metadata type")
	}
	return metadata, nil
}

func (cc *CandidateCache) schedulePeriodicRefresh() {
	ticker := time.NewTicker(cc.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-cc.stop:
			return
		case <-ticker.C:
			if err := cc.refreshInBackground(); err != nil {
				// keep serving the previous set until the next tick
				logger.Error("Scheduled candidate cache refresh failed", zap.Error(err))
			}
		}
	}
}

func (cc *CandidateCache) refreshInBackground() error {
	cc.mu.Lock()
	if cc.refreshing {
		cc.mu.Unlock()
		logger.Debug("Refresh already in progress, skipping")
		return nil
	}
	cc.refreshing = true
	cc.mu.Unlock()

	defer func() {
		cc.mu.Lock()
		cc.refreshing = false
		cc.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	mentors, err := cc.source.FindActiveMentorsWithSessions(ctx)
	if err != nil {
		return err
	}
	cc.populate(mentors)
	return nil
}

func (cc *CandidateCache) populate(mentors []*models.MentorProfile) {
	now := time.Now()
	cc.cache.Set(candidatesKey, mentors, cc.ttl)
	cc.cache.Set(candidateMetaKey, &CacheMetadata{
		LastRefreshTime: now,
		MentorCount:     len(mentors),
	}, gocache.NoExpiration)

	cc.mu.Lock()
	cc.lastRefresh = now
	cc.mu.Unlock()

	metrics.CacheSize.WithLabelValues(candidateCacheTag).Set(float64(len(mentors)))
}

// DirectCandidates reads candidates from the source on every request. Used
// when DISABLE_CANDIDATE_CACHE is set.
type DirectCandidates struct {
	Source CandidateSource
}

func (d DirectCandidates) Get(ctx context.Context) ([]*models.MentorProfile, error) {
	return d.Source.FindActiveMentorsWithSessions(ctx)
}

func (DirectCandidates) Invalidate() {}
