package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

var scheduleOrder = options.Find().SetSort(bson.D{{Key: "scheduledDateTime", Value: 1}, {Key: "createdAt", Value: 1}})

func (s *Store) FindConflictingBooking(ctx context.Context, sessionID string, slot time.Time) (b *models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "findConflictingBooking", start, err) }()

	var doc bookingDocument
	err = s.bookings.FindOne(ctx, bson.M{
		"mentorSessionId":   sessionID,
		"scheduledDateTime": slot.UTC(),
		"slotHold":          true,
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicting booking: %w", err)
	}

	hydrated, err := s.hydrate(ctx, []bookingDocument{doc})
	if err != nil {
		return nil, err
	}
	return hydrated[0], nil
}

// CreateBookingWithPayment inserts the booking with slotHold set, so a second
// live booking on the slot fails the partial unique index
func (s *Store) CreateBookingWithPayment(ctx context.Context, booking *models.Booking, amount float64) (created *models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "createBookingWithPayment", start, err) }()

	now := time.Now().UTC()
	doc := bookingDocument{
		ID:                booking.ID,
		MentorSessionID:   booking.MentorSessionID,
		MentorID:          booking.MentorID,
		StudentID:         booking.StudentID,
		ScheduledDateTime: booking.ScheduledDateTime.UTC(),
		Status:            string(models.BookingPending),
		Notes:             booking.Notes,
		SlotHold:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	payment := paymentDocument{
		ID:        uuid.NewString(),
		BookingID: doc.ID,
		Amount:    amount,
		Status:    string(models.PaymentPending),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.bookings.InsertOne(sc, doc); err != nil {
			return classifyBookingInsert(err)
		}
		if _, err := s.payments.InsertOne(sc, payment); err != nil {
			return fmt.Errorf("insert payment failed: %w", err)
		}

		res, err := s.sessions.UpdateOne(sc,
			bson.M{"_id": doc.MentorSessionID},
			bson.M{"$inc": bson.M{"totalBookings": 1}})
		if err != nil {
			return fmt.Errorf("update session counter failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return repository.ErrNotFound
		}

		res, err = s.mentors.UpdateOne(sc,
			bson.M{"_id": doc.MentorID},
			bson.M{"$inc": bson.M{"totalSessions": 1}})
		if err != nil {
			return fmt.Errorf("update mentor counter failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	hydrated, err := s.hydrate(ctx, []bookingDocument{doc})
	if err != nil {
		return nil, err
	}
	return hydrated[0], nil
}

func (s *Store) GetBooking(ctx context.Context, bookingID string) (b *models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "getBooking", start, err) }()

	var doc bookingDocument
	if err := s.bookings.FindOne(ctx, bson.M{"_id": bookingID}).Decode(&doc); err != nil {
		return nil, notFoundIfNoDocuments(err)
	}
	hydrated, err := s.hydrate(ctx, []bookingDocument{doc})
	if err != nil {
		return nil, err
	}
	return hydrated[0], nil
}

func (s *Store) ListStudentBookings(ctx context.Context, studentID string) (bookings []*models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "listStudentBookings", start, err) }()

	return s.findBookings(ctx, bson.M{"studentId": studentID})
}

func (s *Store) ListMentorBookings(ctx context.Context, mentorID string) (bookings []*models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "listMentorBookings", start, err) }()

	return s.findBookings(ctx, bson.M{"mentorId": mentorID})
}

func (s *Store) ListSessionBookings(ctx context.Context, sessionID string) (bookings []*models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "listSessionBookings", start, err) }()

	return s.findBookings(ctx, bson.M{"mentorSessionId": sessionID, "slotHold": true})
}

func (s *Store) ListMentorBookedSlots(ctx context.Context, mentorID string) (slots []models.BookedSlot, err error) {
	start := time.Now()
	defer func() { observe(ctx, "listMentorBookedSlots", start, err) }()

	bookings, err := s.findBookings(ctx, bson.M{"mentorId": mentorID, "slotHold": true})
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

// CancelBooking releases the slot hold and decrements the session and mentor
// counters in one transaction
func (s *Store) CancelBooking(ctx context.Context, bookingID string) (b *models.Booking, err error) {
	start := time.Now()
	defer func() { observe(ctx, "cancelBooking", start, err) }()

	var updated bookingDocument
	err = s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		err := s.bookings.FindOneAndUpdate(sc,
			bson.M{
				"_id":    bookingID,
				"status": bson.M{"$in": bson.A{string(models.BookingPending), string(models.BookingConfirmed)}},
			},
			bson.M{"$set": bson.M{
				"status":    string(models.BookingCancelled),
				"slotHold":  false,
				"updatedAt": time.Now().UTC(),
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			count, countErr := s.bookings.CountDocuments(sc, bson.M{"_id": bookingID})
			if countErr != nil {
				return fmt.Errorf("check booking failed: %w", countErr)
			}
			if count == 0 {
				return repository.ErrNotFound
			}
			return repository.ErrNotCancellable
		}
		if err != nil {
			return fmt.Errorf("cancel booking failed: %w", err)
		}

		if _, err := s.sessions.UpdateOne(sc,
			bson.M{"_id": updated.MentorSessionID, "totalBookings": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"totalBookings": -1}}); err != nil {
			return fmt.Errorf("update session counter failed: %w", err)
		}

		if _, err := s.mentors.UpdateOne(sc,
			bson.M{"_id": updated.MentorID, "totalSessions": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"totalSessions": -1}}); err != nil {
			return fmt.Errorf("update mentor counter failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	hydrated, err := s.hydrate(ctx, []bookingDocument{updated})
	if err != nil {
		return nil, err
	}
	return hydrated[0], nil
}

func (s *Store) AttachPaymentSlip(ctx context.Context, bookingID, slipKey string) (p *models.Payment, err error) {
	start := time.Now()
	defer func() { observe(ctx, "attachPaymentSlip", start, err) }()

	var doc paymentDocument
	err = s.payments.FindOneAndUpdate(ctx,
		bson.M{"bookingId": bookingID, "status": bson.M{"$ne": string(models.PaymentVerified)}},
		bson.M{"$set": bson.M{
			"slipKey":   slipKey,
			"status":    string(models.PaymentSubmitted),
			"updatedAt": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toModel(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("attach payment slip failed: %w", err)
	}

	count, err := s.payments.CountDocuments(ctx, bson.M{"bookingId": bookingID})
	if err != nil {
		return nil, fmt.Errorf("check payment failed: %w", err)
	}
	if count == 0 {
		return nil, repository.ErrNotFound
	}
	return nil, repository.ErrPaymentLocked
}

func (s *Store) findBookings(ctx context.Context, filter bson.M) ([]*models.Booking, error) {
	cursor, err := s.bookings.Find(ctx, filter, scheduleOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	var docs []bookingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return s.hydrate(ctx, docs)
}

// hydrate joins bookings with their session titles and payments. The two
// lookups are independent and run concurrently.
func (s *Store) hydrate(ctx context.Context, docs []bookingDocument) ([]*models.Booking, error) {
	bookings := make([]*models.Booking, 0, len(docs))
	if len(docs) == 0 {
		return bookings, nil
	}

	sessionIDs := make([]string, 0, len(docs))
	bookingIDs := make([]string, 0, len(docs))
	for _, d := range docs {
		sessionIDs = append(sessionIDs, d.MentorSessionID)
		bookingIDs = append(bookingIDs, d.ID)
	}

	var (
		sessionDocs []sessionDocument
		paymentDocs []paymentDocument
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cursor, err := s.sessions.Find(gctx,
			bson.M{"_id": bson.M{"$in": sessionIDs}},
			options.Find().SetProjection(bson.M{"title": 1, "mentorId": 1}))
		if err != nil {
			return fmt.Errorf("failed to query sessions: %w", err)
		}
		return cursor.All(gctx, &sessionDocs)
	})
	g.Go(func() error {
		cursor, err := s.payments.Find(gctx, bson.M{"bookingId": bson.M{"$in": bookingIDs}})
		if err != nil {
			return fmt.Errorf("failed to query payments: %w", err)
		}
		return cursor.All(gctx, &paymentDocs)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	titles := make(map[string]string, len(sessionDocs))
	for _, d := range sessionDocs {
		titles[d.ID] = d.Title
	}
	payments := make(map[string]*models.Payment, len(paymentDocs))
	for _, d := range paymentDocs {
		payments[d.BookingID] = d.toModel()
	}

	for _, d := range docs {
		b := d.toModel()
		b.SessionTitle = titles[d.MentorSessionID]
		b.Payment = payments[d.ID]
		bookings = append(bookings, b)
	}
	return bookings, nil
}
