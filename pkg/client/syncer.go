package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const syncConcurrency = 4

// Syncer keeps the mirror of a fixed set of mentors fresh by polling the
// booked-slots feed
type Syncer struct {
	client   *Client
	interval time.Duration
	mentors  []string
}

func NewSyncer(client *Client, interval time.Duration, mentorIDs ...string) *Syncer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Syncer{client: client, interval: interval, mentors: mentorIDs}
}

// SyncOnce refreshes every mentor. One failing mentor does not stop the others.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(syncConcurrency)

	for _, id := range s.mentors {
		g.Go(func() error {
			if err := s.client.SyncMentor(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("mentor %s: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines report through errs

	return errors.Join(errs...)
}

// Run syncs immediately and then every interval until ctx is done
func (s *Syncer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.SyncOnce(ctx); err != nil {
			logger.Warn("Booked slot sync failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
