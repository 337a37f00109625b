// Package memory is an in-process Store used in development and tests.
// A single mutex serialises every write, so the check-and-insert in
// CreateBookingWithPayment is atomic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mentorhub/mentorhub-api/internal/availability"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
)

// Store keeps every entity in maps keyed by ID
type Store struct {
	mu sync.RWMutex

	students    map[string]*models.StudentProfile // by user ID
	mentors     map[string]*models.MentorProfile  // by ID
	mentorOrder []string
	sessions    map[string]*models.MentorSession
	bookings    map[string]*models.Booking
	payments    map[string]*models.Payment // by booking ID

	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		students: make(map[string]*models.StudentProfile),
		mentors:  make(map[string]*models.MentorProfile),
		sessions: make(map[string]*models.MentorSession),
		bookings: make(map[string]*models.Booking),
		payments: make(map[string]*models.Payment),
		now:      time.Now,
	}
}

// SetClock overrides the clock used for timestamps and session expiry
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddStudent inserts or replaces a student profile, assigning an ID if empty
func (s *Store) AddStudent(p models.StudentProfile) *models.StudentProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	stored := p
	s.students[p.UserID] = &stored
	return cloneStudent(&stored)
}

// AddMentor inserts or replaces a mentor profile, assigning an ID if empty.
// Insertion order is the order FindActiveMentorsWithSessions returns.
func (s *Store) AddMentor(m models.MentorProfile) *models.MentorProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, exists := s.mentors[m.ID]; !exists {
		s.mentorOrder = append(s.mentorOrder, m.ID)
	}
	m.Sessions = nil
	stored := m
	s.mentors[m.ID] = &stored
	return cloneMentor(&stored)
}

// AddSession inserts or replaces a mentor session, assigning an ID if empty
func (s *Store) AddSession(sess models.MentorSession) *models.MentorSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	stored := sess
	stored.AvailableSlots = append([]time.Time(nil), sess.AvailableSlots...)
	s.sessions[sess.ID] = &stored
	return cloneSession(&stored)
}

func (s *Store) FindActiveMentorsWithSessions(ctx context.Context) ([]*models.MentorProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	result := make([]*models.MentorProfile, 0, len(s.mentorOrder))
	for _, id := range s.mentorOrder {
		m := s.mentors[id]
		if !m.IsActive {
			continue
		}
		mentor := cloneMentor(m)
		for _, sess := range s.sortedSessionsLocked(id) {
			if sess.IsBookable(now) {
				mentor.Sessions = append(mentor.Sessions, *cloneSession(sess))
			}
		}
		result = append(result, mentor)
	}
	return result, nil
}

func (s *Store) FindStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.students[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneStudent(p), nil
}

func (s *Store) FindMentorByUserID(ctx context.Context, userID string) (*models.MentorProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.mentorOrder {
		if m := s.mentors[id]; m.UserID == userID {
			return cloneMentor(m), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) FindMentorSession(ctx context.Context, sessionID string) (*models.MentorSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSession(sess), nil
}

func (s *Store) FindConflictingBooking(ctx context.Context, sessionID string, slot time.Time) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if b := s.conflictLocked(sessionID, slot); b != nil {
		return s.hydrateLocked(b), nil
	}
	return nil, nil
}

func (s *Store) CreateBookingWithPayment(ctx context.Context, booking *models.Booking, amount float64) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[booking.MentorSessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	mentor, ok := s.mentors[booking.MentorID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if s.conflictLocked(booking.MentorSessionID, booking.ScheduledDateTime) != nil {
		return nil, repository.ErrSlotConflict
	}

	now := s.now()
	stored := *booking
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.Status = models.BookingPending
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.SessionTitle = ""
	stored.Payment = nil

	payment := &models.Payment{
		ID:        uuid.NewString(),
		BookingID: stored.ID,
		Amount:    amount,
		Status:    models.PaymentPending,
		CreatedAt: now,
	}

	s.bookings[stored.ID] = &stored
	s.payments[stored.ID] = payment
	sess.TotalBookings++
	mentor.TotalSessions++

	return s.hydrateLocked(&stored), nil
}

func (s *Store) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.hydrateLocked(b), nil
}

func (s *Store) ListStudentBookings(ctx context.Context, studentID string) ([]*models.Booking, error) {
	return s.listBookings(ctx, func(b *models.Booking) bool { return b.StudentID == studentID })
}

func (s *Store) ListMentorBookings(ctx context.Context, mentorID string) ([]*models.Booking, error) {
	return s.listBookings(ctx, func(b *models.Booking) bool { return b.MentorID == mentorID })
}

func (s *Store) ListSessionBookings(ctx context.Context, sessionID string) ([]*models.Booking, error) {
	return s.listBookings(ctx, func(b *models.Booking) bool {
		return b.MentorSessionID == sessionID && availability.IsActiveStatus(b.Status)
	})
}

func (s *Store) ListMentorBookedSlots(ctx context.Context, mentorID string) ([]models.BookedSlot, error) {
	bookings, err := s.listBookings(ctx, func(b *models.Booking) bool {
		return b.MentorID == mentorID && availability.IsActiveStatus(b.Status)
	})
	if err != nil {
		return nil, err
	}

	slots := make([]models.BookedSlot, 0, len(bookings))
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

func (s *Store) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !repository.IsCancellable(b.Status) {
		return nil, repository.ErrNotCancellable
	}

	b.Status = models.BookingCancelled
	b.UpdatedAt = s.now()
	if sess, ok := s.sessions[b.MentorSessionID]; ok && sess.TotalBookings > 0 {
		sess.TotalBookings--
	}
	if mentor, ok := s.mentors[b.MentorID]; ok && mentor.TotalSessions > 0 {
		mentor.TotalSessions--
	}
	return s.hydrateLocked(b), nil
}

func (s *Store) AttachPaymentSlip(ctx context.Context, bookingID, slipKey string) (*models.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !repository.AcceptsSlip(p.Status) {
		return nil, repository.ErrPaymentLocked
	}

	p.SlipKey = slipKey
	p.Status = models.PaymentSubmitted
	copied := *p
	return &copied, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(context.Context) error {
	return nil
}

// conflictLocked finds a live booking on the slot. Caller holds s.mu.
func (s *Store) conflictLocked(sessionID string, slot time.Time) *models.Booking {
	for _, b := range s.bookings {
		if availability.Occupies(b, sessionID, slot) {
			return b
		}
	}
	return nil
}

func (s *Store) listBookings(ctx context.Context, keep func(*models.Booking) bool) ([]*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Booking, 0)
	for _, b := range s.bookings {
		if keep(b) {
			result = append(result, s.hydrateLocked(b))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].ScheduledDateTime.Equal(result[j].ScheduledDateTime) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ScheduledDateTime.Before(result[j].ScheduledDateTime)
	})
	return result, nil
}

// hydrateLocked returns a copy of b joined with its session title and payment
func (s *Store) hydrateLocked(b *models.Booking) *models.Booking {
	copied := *b
	if sess, ok := s.sessions[b.MentorSessionID]; ok {
		copied.SessionTitle = sess.Title
	}
	if p, ok := s.payments[b.ID]; ok {
		payment := *p
		copied.Payment = &payment
	}
	return &copied
}

func (s *Store) sortedSessionsLocked(mentorID string) []*models.MentorSession {
	sessions := make([]*models.MentorSession, 0)
	for _, sess := range s.sessions {
		if sess.MentorID == mentorID {
			sessions = append(sessions, sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions
}

func cloneStudent(p *models.StudentProfile) *models.StudentProfile {
	c := *p
	c.SubjectsOfInterest = append([]string(nil), p.SubjectsOfInterest...)
	return &c
}

func cloneMentor(m *models.MentorProfile) *models.MentorProfile {
	c := *m
	c.SubjectsToTeach = append([]string(nil), m.SubjectsToTeach...)
	c.PreferredStudentLevels = append([]models.EducationLevel(nil), m.PreferredStudentLevels...)
	if m.AverageRating != nil {
		r := *m.AverageRating
		c.AverageRating = &r
	}
	c.Sessions = nil
	return &c
}

func cloneSession(s *models.MentorSession) *models.MentorSession {
	c := *s
	c.AvailableSlots = append([]time.Time(nil), s.AvailableSlots...)
	if s.ExpiresAt != nil {
		e := *s.ExpiresAt
		c.ExpiresAt = &e
	}
	return &c
}
