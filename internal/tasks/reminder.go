// Package tasks schedules and processes background booking work on asynq.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

// TypeBookingReminder is the asynq task type for session reminders
const TypeBookingReminder = "booking:reminder"

const reminderMaxRetry = 5

// ReminderPayload identifies the booking to remind about
type ReminderPayload struct {
	BookingID   string    `json:"bookingId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

// NewReminderTask builds the task and its options. The task ID is derived
// from the booking so a booking is never reminded twice.
func NewReminderTask(payload ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID("reminder:" + payload.BookingID),
		asynq.MaxRetry(reminderMaxRetry),
	}
	return task, opts, nil
}

// BookingReader loads the booking a reminder refers to
type BookingReader interface {
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
}

// TriggerCaller fires the reminder webhook
type TriggerCaller interface {
	Call(ctx context.Context, triggerURL, recordID string) error
}

// ReminderHandler processes booking:reminder tasks
type ReminderHandler struct {
	bookings   BookingReader
	caller     TriggerCaller
	triggerURL string
}

var _ asynq.Handler = (*ReminderHandler)(nil)

// NewReminderHandler creates a reminder task handler
func NewReminderHandler(bookings BookingReader, caller TriggerCaller, triggerURL string) *ReminderHandler {
	return &ReminderHandler{bookings: bookings, caller: caller, triggerURL: triggerURL}
}

// ProcessTask sends the reminder unless the booking is gone or no longer live
func (h *ReminderHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var p ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		metrics.ReminderTasks.WithLabelValues("process", "invalid").Inc()
		logger.Error("Invalid reminder payload", zap.Error(err))
		return fmt.Errorf("invalid reminder payload: %w", asynq.SkipRetry)
	}

	booking, err := h.bookings.GetBooking(ctx, p.BookingID)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.ReminderTasks.WithLabelValues("process", "skipped").Inc()
		logger.Warn("Reminder for missing booking", zap.String("booking_id", p.BookingID))
		return nil
	}
	if err != nil {
		metrics.ReminderTasks.WithLabelValues("process", "error").Inc()
		return fmt.Errorf("failed to load booking %s: %w", p.BookingID, err)
	}

	if booking.Status != models.BookingPending && booking.Status != models.BookingConfirmed {
		metrics.ReminderTasks.WithLabelValues("process", "skipped").Inc()
		logger.Info("Skipping reminder for inactive booking",
			zap.String("booking_id", p.BookingID),
			zap.String("status", string(booking.Status)))
		return nil
	}

	if err := h.caller.Call(ctx, h.triggerURL, booking.ID); err != nil {
		metrics.ReminderTasks.WithLabelValues("process", "error").Inc()
		return fmt.Errorf("reminder trigger failed: %w", err)
	}

	metrics.ReminderTasks.WithLabelValues("process", "success").Inc()
	logger.Info("Reminder sent", zap.String("booking_id", booking.ID))
	return nil
}

// NewServeMux registers every task handler the worker runs
func NewServeMux(reminders *ReminderHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeBookingReminder, reminders)
	return mux
}
