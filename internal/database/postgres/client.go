package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

const (
	driverName = "postgres"

	uniqueViolation    = "23505"
	liveSlotConstraint = "uq_bookings_live_slot"
)

// Client implements repository.Store on top of a pgx connection pool
type Client struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Client)(nil)

// NewClient wraps an already connected pool (see pkg/db.NewPool)
func NewClient(pool *pgxpool.Pool) *Client {
	return &Client{pool: pool}
}

// Close closes the connection pool
func (c *Client) Close(context.Context) error {
	if c.pool != nil {
		c.pool.Close()
		logger.Info("PostgreSQL connection pool closed")
	}
	return nil
}

// Pool returns the underlying connection pool for advanced usage
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Ping checks if the database connection is alive
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Stats returns connection pool statistics
func (c *Client) Stats() *pgxpool.Stat {
	return c.pool.Stat()
}

// observe records metrics and a debug log line for one store call. Expected
// domain outcomes (missing rows, lost slot races) are labelled separately
// from real failures.
func observe(ctx context.Context, operation string, start time.Time, err error) {
	duration := metrics.MeasureDuration(start)
	status := statusOf(err)
	metrics.RecordStoreOperation(driverName, operation, status, duration)

	if status == "error" {
		logger.LogAPICall(ctx, driverName, operation, status, duration, zap.Error(err))
		return
	}
	logger.LogAPICall(ctx, driverName, operation, status, duration)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrSlotConflict), errors.Is(err, repository.ErrNotCancellable),
		errors.Is(err, repository.ErrPaymentLocked):
		return "conflict"
	default:
		return "error"
	}
}

// isLiveSlotViolation reports whether err is the partial unique index
// rejecting a second live booking for the same slot
func isLiveSlotViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == liveSlotConstraint
}

func notFoundIfNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}
