package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

// Enqueuer schedules booking follow-up work
type Enqueuer interface {
	EnqueueReminder(ctx context.Context, booking *models.Booking) error
}

// taskClient is the subset of *asynq.Client the enqueuer uses
type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqEnqueuer schedules reminders leadTime before the session starts.
// Bookings already inside that window are reminded right away.
type AsynqEnqueuer struct {
	client   taskClient
	leadTime time.Duration
	now      func() time.Time
}

var _ Enqueuer = (*AsynqEnqueuer)(nil)

// NewAsynqEnqueuer creates an enqueuer on an asynq client
func NewAsynqEnqueuer(client *asynq.Client, leadHours int) *AsynqEnqueuer {
	return newAsynqEnqueuer(client, leadHours, time.Now)
}

func newAsynqEnqueuer(client taskClient, leadHours int, now func() time.Time) *AsynqEnqueuer {
	if leadHours <= 0 {
		leadHours = 24
	}
	return &AsynqEnqueuer{client: client, leadTime: time.Duration(leadHours) * time.Hour, now: now}
}

// EnqueueReminder schedules the reminder for booking
func (e *AsynqEnqueuer) EnqueueReminder(ctx context.Context, booking *models.Booking) error {
	fireAt := booking.ScheduledDateTime.Add(-e.leadTime)
	if now := e.now(); fireAt.Before(now) {
		fireAt = now
	}

	task, opts, err := NewReminderTask(ReminderPayload{
		BookingID:   booking.ID,
		ScheduledAt: booking.ScheduledDateTime,
	}, fireAt)
	if err != nil {
		metrics.ReminderTasks.WithLabelValues("enqueue", "error").Inc()
		return fmt.Errorf("failed to build reminder task: %w", err)
	}

	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		metrics.ReminderTasks.WithLabelValues("enqueue", "duplicate").Inc()
		return nil
	}
	if err != nil {
		metrics.ReminderTasks.WithLabelValues("enqueue", "error").Inc()
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}

	metrics.ReminderTasks.WithLabelValues("enqueue", "success").Inc()
	logger.Debug("Reminder scheduled",
		zap.String("booking_id", booking.ID),
		zap.String("task_id", info.ID),
		zap.Time("fire_at", fireAt))
	return nil
}

// NoopEnqueuer is used when no queue is configured
type NoopEnqueuer struct{}

func (NoopEnqueuer) EnqueueReminder(context.Context, *models.Booking) error { return nil }
