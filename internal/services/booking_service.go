package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/internal/availability"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	"github.com/mentorhub/mentorhub-api/internal/tasks"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"github.com/mentorhub/mentorhub-api/pkg/storage"
	"go.uber.org/zap"
)

// BookingService admits, lists and cancels bookings
type BookingService struct {
	store      repository.Store
	candidates CandidateInvalidator
	results    MatchResultCache
	reminders  tasks.Enqueuer
	triggers   EventTrigger
	slips      SlipPresigner
	config     *config.Config
	now        func() time.Time
}

var _ BookingServiceInterface = (*BookingService)(nil)

// BookingDeps groups the optional collaborators of BookingService. Nil
// fields disable the corresponding side effect.
type BookingDeps struct {
	Candidates CandidateInvalidator
	Results    MatchResultCache
	Reminders  tasks.Enqueuer
	Triggers   EventTrigger
	Slips      SlipPresigner
}

// NewBookingService creates a new BookingService
func NewBookingService(store repository.Store, deps BookingDeps, cfg *config.Config) *BookingService {
	reminders := deps.Reminders
	if reminders == nil {
		reminders = tasks.NoopEnqueuer{}
	}
	return &BookingService{
		store:      store,
		candidates: deps.Candidates,
		results:    deps.Results,
		reminders:  reminders,
		triggers:   deps.Triggers,
		slips:      deps.Slips,
		config:     cfg,
		now:        time.Now,
	}
}

// BookSession admits a booking request from the student owned by userID.
// Checks run in a fixed order and the first failure wins. The store repeats
// the conflict check inside its write, so a lost race also ends in
// ErrSlotConflict.
func (s *BookingService) BookSession(ctx context.Context, userID string, req *models.BookSessionRequest) (*models.Booking, error) {
	booking, err := s.admit(ctx, userID, req)
	metrics.BookingAttempts.WithLabelValues(bookingOutcome(err)).Inc()
	if err != nil {
		logger.Info("Booking rejected",
			zap.String("user_id", userID),
			zap.String("mentor_session_id", req.MentorSessionID),
			zap.Time("requested_at", req.ScheduledDateTime),
			zap.String("reason", err.Error()))
		return nil, err
	}

	s.afterBookingCreated(ctx, booking)

	logger.Info("Session booked",
		zap.String("booking_id", booking.ID),
		zap.String("mentor_session_id", booking.MentorSessionID),
		zap.String("student_id", booking.StudentID),
		zap.Time("scheduled_at", booking.ScheduledDateTime))
	return booking, nil
}

func (s *BookingService) admit(ctx context.Context, userID string, req *models.BookSessionRequest) (*models.Booking, error) {
	student, err := s.store.FindStudentProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentProfileNotFound
		}
		return nil, fmt.Errorf("failed to load student profile: %w", err)
	}

	session, err := s.store.FindMentorSession(ctx, req.MentorSessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load mentor session: %w", err)
	}

	now := s.now()
	if !session.IsBookable(now) {
		return nil, invalidSlot(MsgSessionUnavailable)
	}

	slot, ok := availability.MatchSlot(session, req.ScheduledDateTime)
	if !ok {
		return nil, invalidSlot(MsgSlotNotOffered)
	}

	switch availability.CheckLeadTime(slot, now) {
	case availability.LeadTimeInPast:
		return nil, invalidSlot(MsgSlotInPast)
	case availability.LeadTimeTooSoon:
		return nil, invalidSlot(MsgLeadTime)
	}

	existing, err := s.store.FindConflictingBooking(ctx, session.ID, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if existing != nil {
		return nil, ErrSlotConflict
	}

	booking, err := s.store.CreateBookingWithPayment(ctx, &models.Booking{
		MentorSessionID:   session.ID,
		MentorID:          session.MentorID,
		StudentID:         student.ID,
		ScheduledDateTime: slot,
		Notes:             req.Notes,
	}, session.Price)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotConflict):
			return nil, ErrSlotConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return booking, nil
}

// afterBookingCreated runs side effects that must not fail the booking
func (s *BookingService) afterBookingCreated(ctx context.Context, booking *models.Booking) {
	s.invalidateCaches(ctx)

	if err := s.reminders.EnqueueReminder(ctx, booking); err != nil {
		logger.Error("Failed to schedule booking reminder",
			zap.String("booking_id", booking.ID),
			zap.Error(err))
	}

	if s.triggers != nil && s.config != nil {
		s.triggers.CallAsync(s.config.EventTriggers.BookingCreatedTriggerURL, booking.ID)
	}
}

func (s *BookingService) invalidateCaches(ctx context.Context) {
	if s.candidates != nil {
		s.candidates.Invalidate()
	}
	if s.results != nil {
		if err := s.results.InvalidateAll(ctx); err != nil {
			logger.Warn("Failed to invalidate match cache", zap.Error(err))
		}
	}
}

// ListBookings returns the caller's bookings from the student or mentor side
func (s *BookingService) ListBookings(ctx context.Context, user *models.UserSession) ([]*models.Booking, error) {
	owner, err := s.resolveOwner(ctx, user)
	if err != nil {
		return nil, err
	}

	var bookings []*models.Booking
	if owner.studentID != "" {
		bookings, err = s.store.ListStudentBookings(ctx, owner.studentID)
	} else {
		bookings, err = s.store.ListMentorBookings(ctx, owner.mentorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// GetBooking returns one booking the caller is a party to
func (s *BookingService) GetBooking(ctx context.Context, user *models.UserSession, bookingID string) (*models.Booking, error) {
	booking, _, err := s.loadOwnedBooking(ctx, user, bookingID)
	return booking, err
}

// CancelBooking cancels a booking the caller is a party to and frees its slot
func (s *BookingService) CancelBooking(ctx context.Context, user *models.UserSession, bookingID string) (*models.Booking, error) {
	if _, _, err := s.loadOwnedBooking(ctx, user, bookingID); err != nil {
		metrics.BookingCancellations.WithLabelValues(bookingOutcome(err)).Inc()
		return nil, err
	}

	booking, err := s.store.CancelBooking(ctx, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotCancellable):
			err = ErrBookingNotCancellable
		case errors.Is(err, repository.ErrNotFound):
			err = ErrBookingNotFound
		default:
			err = fmt.Errorf("failed to cancel booking: %w", err)
		}
		metrics.BookingCancellations.WithLabelValues(bookingOutcome(err)).Inc()
		return nil, err
	}
	metrics.BookingCancellations.WithLabelValues("success").Inc()

	s.invalidateCaches(ctx)
	if s.triggers != nil && s.config != nil {
		s.triggers.CallAsync(s.config.EventTriggers.BookingCancelledTriggerURL, booking.ID)
	}

	logger.Info("Booking cancelled",
		zap.String("booking_id", booking.ID),
		zap.String("cancelled_by", user.Role))
	return booking, nil
}

// GetAvailableSlots lists the published slots of a session that can still be booked
func (s *BookingService) GetAvailableSlots(ctx context.Context, sessionID string) (*models.AvailableSlotsData, error) {
	session, err := s.store.FindMentorSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load mentor session: %w", err)
	}

	data := &models.AvailableSlotsData{MentorSessionID: session.ID, Slots: []time.Time{}}
	now := s.now()
	if !session.IsBookable(now) {
		return data, nil
	}

	bookings, err := s.store.ListSessionBookings(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session bookings: %w", err)
	}
	data.Slots = availability.OpenSlots(session, bookings, now)
	return data, nil
}

// GetMentorBookedSlots returns the occupied slots across a mentor's sessions.
// The feed is public, so booking ids are stripped.
func (s *BookingService) GetMentorBookedSlots(ctx context.Context, mentorID string) ([]models.BookedSlot, error) {
	slots, err := s.store.ListMentorBookedSlots(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}
	for i := range slots {
		slots[i].BookingID = ""
	}
	return slots, nil
}

// RequestPaymentSlipUpload issues an upload URL for the bank slip of a
// booking owned by the calling student and marks the payment SUBMITTED
func (s *BookingService) RequestPaymentSlipUpload(ctx context.Context, user *models.UserSession, bookingID, contentType string) (*models.PaymentSlipData, error) {
	data, err := s.requestPaymentSlip(ctx, user, bookingID, contentType)
	metrics.PaymentSlipUploads.WithLabelValues(bookingOutcome(err)).Inc()
	return data, err
}

func (s *BookingService) requestPaymentSlip(ctx context.Context, user *models.UserSession, bookingID, contentType string) (*models.PaymentSlipData, error) {
	if s.slips == nil {
		return nil, ErrStorageUnavailable
	}

	booking, owner, err := s.loadOwnedBooking(ctx, user, bookingID)
	if err != nil {
		return nil, err
	}
	if owner.studentID == "" {
		return nil, ErrForbidden
	}
	if booking.Status == models.BookingCancelled {
		return nil, ErrPaymentLocked
	}

	key, err := storage.SlipKey(booking.ID, contentType)
	if err != nil {
		return nil, err
	}
	uploadURL, expiresAt, err := s.slips.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to presign slip upload: %w", err)
	}

	payment, err := s.store.AttachPaymentSlip(ctx, booking.ID, key)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentLocked):
			return nil, ErrPaymentLocked
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to record payment slip: %w", err)
	}

	return &models.PaymentSlipData{
		UploadURL:     uploadURL,
		ExpiresAt:     expiresAt.UTC(),
		PaymentStatus: payment.Status,
	}, nil
}

type bookingOwner struct {
	studentID string
	mentorID  string
}

func (o bookingOwner) owns(b *models.Booking) bool {
	return (o.studentID != "" && b.StudentID == o.studentID) ||
		(o.mentorID != "" && b.MentorID == o.mentorID)
}

func (s *BookingService) resolveOwner(ctx context.Context, user *models.UserSession) (bookingOwner, error) {
	if user == nil {
		return bookingOwner{}, ErrUnauthenticated
	}

	switch {
	case user.IsStudent():
		p, err := s.store.FindStudentProfile(ctx, user.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return bookingOwner{}, ErrStudentProfileNotFound
		}
		if err != nil {
			return bookingOwner{}, fmt.Errorf("failed to load student profile: %w", err)
		}
		return bookingOwner{studentID: p.ID}, nil

	case user.IsMentor():
		m, err := s.store.FindMentorByUserID(ctx, user.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return bookingOwner{}, ErrMentorProfileNotFound
		}
		if err != nil {
			return bookingOwner{}, fmt.Errorf("failed to load mentor profile: %w", err)
		}
		return bookingOwner{mentorID: m.ID}, nil
	}

	return bookingOwner{}, ErrForbidden
}

func (s *BookingService) loadOwnedBooking(ctx context.Context, user *models.UserSession, bookingID string) (*models.Booking, bookingOwner, error) {
	owner, err := s.resolveOwner(ctx, user)
	if err != nil {
		return nil, owner, err
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, owner, ErrBookingNotFound
		}
		return nil, owner, fmt.Errorf("failed to load booking: %w", err)
	}
	if !owner.owns(booking) {
		return nil, owner, ErrForbidden
	}
	return booking, owner, nil
}

// bookingOutcome maps an error to a metrics label
func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrSlotConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidSlot):
		return "invalid_slot"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrStudentProfileNotFound), errors.Is(err, ErrMentorProfileNotFound),
		errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrBookingNotFound):
		return "not_found"
	case errors.Is(err, ErrBookingNotCancellable), errors.Is(err, ErrPaymentLocked):
		return "rejected"
	default:
		return "error"
	}
}
