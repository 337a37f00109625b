package cache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mentorhub/mentorhub-api/internal/cache"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCandidateSource struct {
	mock.Mock
}

func (m *MockCandidateSource) FindActiveMentorsWithSessions(ctx context.Context) ([]*models.MentorProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MentorProfile), args.Error(1)
}

func TestCandidateCache_InitializeAndGet(t *testing.T) {
	source := new(MockCandidateSource)
	mentors := []*models.MentorProfile{{ID: "m1", IsActive: true}}
	source.On("FindActiveMentorsWithSessions", mock.Anything).Return(mentors, nil).Once()

	cc := cache.NewCandidateCache(source, 300)
	defer cc.Stop()

	require.NoError(t, cc.Initialize(context.Background()))
	assert.True(t, cc.IsReady())

	got, err := cc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mentors, got)

	meta, err := cc.GetMetadata()
	require.NoError(t, err)
	assert.Equal(t, 1, meta.MentorCount)
	assert.False(t, cc.LastRefresh().IsZero())

	source.AssertNumberOfCalls(t, "FindActiveMentorsWithSessions", 1)
}

func TestCandidateCache_InvalidateReloads(t *testing.T) {
	source := new(MockCandidateSource)
	first := []*models.MentorProfile{{ID: "m1"}}
	second := []*models.MentorProfile{{ID: "m1"}, {ID: "m2"}}
	source.On("FindActiveMentorsWithSessions", mock.Anything).Return(first, nil).Once()
	source.On("FindActiveMentorsWithSessions", mock.Anything).Return(second, nil).Once()

	cc := cache.NewCandidateCache(source, 300)
	defer cc.Stop()
	require.NoError(t, cc.Initialize(context.Background()))

	cc.Invalidate()
	got, err := cc.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	source.AssertExpectations(t)
}

func TestCandidateCache_MissPropagatesSourceError(t *testing.T) {
	source := new(MockCandidateSource)
	source.On("FindActiveMentorsWithSessions", mock.Anything).Return(nil, errors.New("db down"))

	cc := cache.NewCandidateCache(source, 300)

	_, err := cc.Get(context.Background())
	assert.EqualError(t, err, "db down")
	assert.False(t, cc.IsReady())
}

func newMatchCache(t *testing.T) (*cache.MatchCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewMatchCache(client, 60), mr
}

func TestDirectCandidates_ReadsSourceEveryTime(t *testing.T) {
	source := new(MockCandidateSource)
	source.On("FindActiveMentorsWithSessions", mock.Anything).Return([]*models.MentorProfile{{ID: "m1"}}, nil)

	direct := cache.DirectCandidates{Source: source}
	for i := 0; i < 2; i++ {
		got, err := direct.Get(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	direct.Invalidate()

	source.AssertNumberOfCalls(t, "FindActiveMentorsWithSessions", 2)
}

func TestMatchCache_SetGet(t *testing.T) {
	mc, _ := newMatchCache(t)
	ctx := context.Background()

	_, err := mc.Get(ctx, "student-1", 10)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	results := []models.CompatibilityResult{{
		MentorID:           "m1",
		CompatibilityScore: 104,
		MatchingFactors:    []string{"Education level match"},
		ReasonsToChoose:    []string{"3 completed sessions"},
	}}
	require.NoError(t, mc.Set(ctx, "student-1", 10, results))

	got, err := mc.Get(ctx, "student-1", 10)
	require.NoError(t, err)
	assert.Equal(t, results[0].MentorID, got[0].MentorID)
	assert.InDelta(t, 104.0, got[0].CompatibilityScore, 1e-9)

	_, err = mc.Get(ctx, "student-1", 5)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMatchCache_InvalidateAll(t *testing.T) {
	mc, _ := newMatchCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "student-1", 10, []models.CompatibilityResult{{MentorID: "m1"}}))
	require.NoError(t, mc.InvalidateAll(ctx))

	_, err := mc.Get(ctx, "student-1", 10)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMatchCache_CorruptEntryIsAMiss(t *testing.T) {
	mc, mr := newMatchCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("match:0:student-1:10", "{not json"))

	_, err := mc.Get(ctx, "student-1", 10)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	assert.False(t, mr.Exists("match:0:student-1:10"))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := cache.NewRedisClient(context.Background(), cache.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
