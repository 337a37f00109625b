package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
)

const bookingSelect = `
	SELECT
		b.id::text, b.mentor_session_id::text, b.mentor_id::text, b.student_id::text,
		b.scheduled_at, b.status, b.notes, b.created_at, b.updated_at,
		COALESCE(s.title, ''),
		p.id::text, p.amount::float8, p.status, p.slip_key, p.created_at
	FROM bookings b
	JOIN mentor_sessions s ON s.id = b.mentor_session_id
	LEFT JOIN payments p ON p.booking_id = b.id`

// FindConflictingBooking returns the live booking holding the slot, if any
func (c *Client) FindConflictingBooking(ctx context.Context, sessionID string, slot time.Time) (b *models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "findConflictingBooking", start, err) }()

	if _, parseErr := uuid.Parse(sessionID); parseErr != nil {
		return nil, nil
	}

	rows, err := c.pool.Query(ctx, bookingSelect+`
		WHERE b.mentor_session_id = $1
		  AND b.scheduled_at = $2
		  AND b.status <> 'CANCELLED'
		LIMIT 1`, sessionID, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicting booking: %w", err)
	}
	bookings, err := pgx.CollectRows(rows, scanBooking)
	if err != nil {
		return nil, fmt.Errorf("failed to scan conflicting booking: %w", err)
	}
	if len(bookings) == 0 {
		return nil, nil
	}
	return bookings[0], nil
}

// CreateBookingWithPayment inserts the booking, its payment and the counter
// updates in one transaction. The partial unique index uq_bookings_live_slot
// turns a lost race into ErrSlotConflict.
func (c *Client) CreateBookingWithPayment(ctx context.Context, booking *models.Booking, amount float64) (created *models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "createBookingWithPayment", start, err) }()

	bookingID := booking.ID
	if bookingID == "" {
		bookingID = uuid.NewString()
	}
	paymentID := uuid.NewString()

	err = pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO bookings (id, mentor_session_id, mentor_id, student_id, scheduled_at, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			bookingID, booking.MentorSessionID, booking.MentorID, booking.StudentID,
			booking.ScheduledDateTime, models.BookingPending, booking.Notes)
		if err != nil {
			if isLiveSlotViolation(err) {
				return repository.ErrSlotConflict
			}
			return fmt.Errorf("failed to insert booking: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO payments (id, booking_id, amount, status)
			VALUES ($1, $2, $3, $4)`,
			paymentID, bookingID, amount, models.PaymentPending); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE mentor_sessions SET total_bookings = total_bookings + 1, updated_at = NOW()
			WHERE id = $1`, booking.MentorSessionID)
		if err != nil {
			return fmt.Errorf("failed to update session counter: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}

		tag, err = tx.Exec(ctx, `
			UPDATE mentors SET total_sessions = total_sessions + 1, updated_at = NOW()
			WHERE id = $1`, booking.MentorID)
		if err != nil {
			return fmt.Errorf("failed to update mentor counter: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.getBooking(ctx, bookingID)
}

// GetBooking loads one booking with its session title and payment
func (c *Client) GetBooking(ctx context.Context, bookingID string) (b *models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "getBooking", start, err) }()

	return c.getBooking(ctx, bookingID)
}

func (c *Client) getBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if _, err := uuid.Parse(bookingID); err != nil {
		return nil, repository.ErrNotFound
	}

	rows, err := c.pool.Query(ctx, bookingSelect+` WHERE b.id = $1`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking: %w", err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBooking)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return b, nil
}

func (c *Client) ListStudentBookings(ctx context.Context, studentID string) (bookings []*models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "listStudentBookings", start, err) }()

	return c.listBookings(ctx, ` WHERE b.student_id = $1 ORDER BY b.scheduled_at ASC, b.created_at ASC`, studentID)
}

func (c *Client) ListMentorBookings(ctx context.Context, mentorID string) (bookings []*models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "listMentorBookings", start, err) }()

	return c.listBookings(ctx, ` WHERE b.mentor_id = $1 ORDER BY b.scheduled_at ASC, b.created_at ASC`, mentorID)
}

func (c *Client) ListSessionBookings(ctx context.Context, sessionID string) (bookings []*models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "listSessionBookings", start, err) }()

	return c.listBookings(ctx, ` WHERE b.mentor_session_id = $1 AND b.status <> 'CANCELLED'
		ORDER BY b.scheduled_at ASC`, sessionID)
}

// ListMentorBookedSlots returns the live bookings of a mentor without student data
func (c *Client) ListMentorBookedSlots(ctx context.Context, mentorID string) (slots []models.BookedSlot, err error) {
	start := time.Now()
	defer func() { observe(ctx, "listMentorBookedSlots", start, err) }()

	bookings, err := c.listBookings(ctx, ` WHERE b.mentor_id = $1 AND b.status <> 'CANCELLED'
		ORDER BY b.scheduled_at ASC`, mentorID)
	if err != nil {
		return nil, err
	}

	slots = make([]models.BookedSlot, 0, len(bookings))
	for _, b := range bookings {
		slots = append(slots, models.BookedSlot{
			BookingID:         b.ID,
			MentorSessionID:   b.MentorSessionID,
			MentorID:          b.MentorID,
			SessionTitle:      b.SessionTitle,
			ScheduledDateTime: b.ScheduledDateTime,
			Status:            b.Status,
		})
	}
	return slots, nil
}

// CancelBooking flips a cancellable booking to CANCELLED and decrements the
// session and mentor counters in one transaction
func (c *Client) CancelBooking(ctx context.Context, bookingID string) (b *models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "cancelBooking", start, err) }()

	if _, parseErr := uuid.Parse(bookingID); parseErr != nil {
		return nil, repository.ErrNotFound
	}

	err = pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		var (
			sessionID string
			mentorID  string
			status    string
		)
		err := tx.QueryRow(ctx, `
			SELECT mentor_session_id::text, mentor_id::text, status FROM bookings WHERE id = $1 FOR UPDATE`,
			bookingID).Scan(&sessionID, &mentorID, &status)
		if err != nil {
			return notFoundIfNoRows(err)
		}
		if !repository.IsCancellable(models.BookingStatus(status)) {
			return repository.ErrNotCancellable
		}

		if _, err := tx.Exec(ctx, `
			UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`,
			bookingID, models.BookingCancelled); err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE mentor_sessions SET total_bookings = GREATEST(total_bookings - 1, 0), updated_at = NOW()
			WHERE id = $1`, sessionID); err != nil {
			return fmt.Errorf("failed to update session counter: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE mentors SET total_sessions = GREATEST(total_sessions - 1, 0), updated_at = NOW()
			WHERE id = $1`, mentorID); err != nil {
			return fmt.Errorf("failed to update mentor counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.getBooking(ctx, bookingID)
}

// AttachPaymentSlip stores the slip key and marks the payment SUBMITTED
func (c *Client) AttachPaymentSlip(ctx context.Context, bookingID, slipKey string) (p *models.Payment, err error) {
	start := time.Now()
	defer func() { observe(ctx, "attachPaymentSlip", start, err) }()

	if _, parseErr := uuid.Parse(bookingID); parseErr != nil {
		return nil, repository.ErrNotFound
	}

	var payment models.Payment
	var status string
	err = c.pool.QueryRow(ctx, `
		UPDATE payments SET slip_key = $2, status = $3, updated_at = NOW()
		WHERE booking_id = $1 AND status <> $4
		RETURNING id::text, booking_id::text, amount::float8, status, slip_key, created_at`,
		bookingID, slipKey, models.PaymentSubmitted, models.PaymentVerified).
		Scan(&payment.ID, &payment.BookingID, &payment.Amount, &status, &payment.SlipKey, &payment.CreatedAt)
	if err == nil {
		payment.Status = models.PaymentStatus(status)
		return &payment, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to attach payment slip: %w", err)
	}

	var exists bool
	if err := c.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE booking_id = $1)`, bookingID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check payment: %w", err)
	}
	if !exists {
		return nil, repository.ErrNotFound
	}
	return nil, repository.ErrPaymentLocked
}

func (c *Client) listBookings(ctx context.Context, where string, arg string) ([]*models.Booking, error) {
	if _, err := uuid.Parse(arg); err != nil {
		return []*models.Booking{}, nil
	}

	rows, err := c.pool.Query(ctx, bookingSelect+where, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	bookings, err := pgx.CollectRows(rows, scanBooking)
	if err != nil {
		return nil, fmt.Errorf("failed to scan bookings: %w", err)
	}
	return bookings, nil
}

func scanBooking(row pgx.CollectableRow) (*models.Booking, error) {
	var (
		b             models.Booking
		status        string
		paymentID     *string
		amount        *float64
		paymentStatus *string
		slipKey       *string
		paidAt        *time.Time
	)
	err := row.Scan(
		&b.ID, &b.MentorSessionID, &b.MentorID, &b.StudentID,
		&b.ScheduledDateTime, &status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
		&b.SessionTitle,
		&paymentID, &amount, &paymentStatus, &slipKey, &paidAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = models.BookingStatus(status)
	b.ScheduledDateTime = b.ScheduledDateTime.UTC()
	if paymentID != nil {
		b.Payment = &models.Payment{
			ID:        *paymentID,
			BookingID: b.ID,
			Amount:    deref(amount),
			Status:    models.PaymentStatus(deref(paymentStatus)),
			SlipKey:   deref(slipKey),
		}
		if paidAt != nil {
			b.Payment.CreatedAt = *paidAt
		}
	}
	return &b, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
