package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/internal/database/memory"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	createdHook   = "https://hooks.example.com/created"
	cancelledHook = "https://hooks.example.com/cancelled"
)

type bookingFixture struct {
	store      *memory.Store
	service    *services.BookingService
	candidates *MockCandidateProvider
	reminders  *MockEnqueuer
	triggers   *MockEventTrigger
	student    *models.StudentProfile
	other      *models.StudentProfile
	mentor     *models.MentorProfile
	session    *models.MentorSession
	slot       time.Time
}

// newBookingFixture seeds one mentor with a session offering a slot three
// days out, a near slot one hour out and a slot three hours out
func newBookingFixture(t *testing.T, slips services.SlipPresigner) *bookingFixture {
	t.Helper()

	store := memory.NewStore()
	now := time.Now().UTC().Truncate(time.Minute)
	slot := now.Add(72 * time.Hour)

	f := &bookingFixture{
		store:      store,
		candidates: new(MockCandidateProvider),
		reminders:  new(MockEnqueuer),
		triggers:   new(MockEventTrigger),
		slot:       slot,
	}
	f.student = store.AddStudent(models.StudentProfile{UserID: "student-user", SubjectsOfInterest: []string{"Biology"}})
	f.other = store.AddStudent(models.StudentProfile{UserID: "other-user"})
	f.mentor = store.AddMentor(models.MentorProfile{UserID: "mentor-user", Name: "Dr. Perera", IsActive: true})
	f.session = store.AddSession(models.MentorSession{
		MentorID:       f.mentor.ID,
		Title:          "A/L Biology",
		AvailableSlots: []time.Time{slot, now.Add(time.Hour), now.Add(3 * time.Hour), now.Add(-time.Hour)},
		IsActive:       true,
		Price:          2500,
	})

	f.candidates.On("Invalidate").Maybe()
	f.reminders.On("EnqueueReminder", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.triggers.On("CallAsync", mock.Anything, mock.Anything).Maybe()

	cfg := &config.Config{EventTriggers: config.EventTriggersConfig{
		BookingCreatedTriggerURL:   createdHook,
		BookingCancelledTriggerURL: cancelledHook,
	}}
	f.service = services.NewBookingService(store, services.BookingDeps{
		Candidates: f.candidates,
		Reminders:  f.reminders,
		Triggers:   f.triggers,
		Slips:      slips,
	}, cfg)
	return f
}

func (f *bookingFixture) request(at time.Time) *models.BookSessionRequest {
	return &models.BookSessionRequest{MentorSessionID: f.session.ID, ScheduledDateTime: at, Notes: "Cell biology"}
}

func studentUser(userID string) *models.UserSession {
	return &models.UserSession{UserID: userID, Role: "student"}
}

func assertSlotError(t *testing.T, err error, reason string) {
	t.Helper()
	var slotErr *services.SlotError
	require.True(t, errors.As(err, &slotErr), "expected SlotError, got %v", err)
	assert.Equal(t, reason, slotErr.Reason)
	assert.ErrorIs(t, err, services.ErrInvalidSlot)
}

func TestBookingService_BookSession(t *testing.T) {
	f := newBookingFixture(t, nil)

	booking, err := f.service.BookSession(context.Background(), "student-user", f.request(f.slot))
	require.NoError(t, err)

	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, f.student.ID, booking.StudentID)
	assert.Equal(t, f.mentor.ID, booking.MentorID)
	assert.True(t, booking.ScheduledDateTime.Equal(f.slot))
	require.NotNil(t, booking.Payment)
	assert.Equal(t, models.PaymentPending, booking.Payment.Status)
	assert.InDelta(t, 2500.0, booking.Payment.Amount, 1e-9)

	f.reminders.AssertCalled(t, "EnqueueReminder", mock.Anything, mock.Anything)
	f.triggers.AssertCalled(t, "CallAsync", createdHook, booking.ID)
	f.candidates.AssertCalled(t, "Invalidate")
}

func TestBookingService_BookSession_StoresCanonicalSlot(t *testing.T) {
	f := newBookingFixture(t, nil)

	booking, err := f.service.BookSession(context.Background(), "student-user", f.request(f.slot.Add(45*time.Second)))
	require.NoError(t, err)
	assert.True(t, booking.ScheduledDateTime.Equal(f.slot))

	_, err = f.service.BookSession(context.Background(), "other-user", f.request(f.slot.Add(-30*time.Second)))
	assert.ErrorIs(t, err, services.ErrSlotConflict)
}

func TestBookingService_BookSession_SecondBookingConflicts(t *testing.T) {
	f := newBookingFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.BookSession(ctx, "student-user", f.request(f.slot))
	require.NoError(t, err)

	_, err = f.service.BookSession(ctx, "other-user", f.request(f.slot))
	assert.ErrorIs(t, err, services.ErrSlotConflict)
}

func TestBookingService_BookSession_ConcurrentRequestsAdmitOne(t *testing.T) {
	f := newBookingFixture(t, nil)
	ctx := context.Background()

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.BookSession(ctx, "student-user", f.request(f.slot))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, services.ErrSlotConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	live, err := f.store.ListSessionBookings(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

func TestBookingService_BookSession_LeadTime(t *testing.T) {
	f := newBookingFixture(t, nil)
	ctx := context.Background()
	slots := f.session.AvailableSlots

	_, err := f.service.BookSession(ctx, "student-user", f.request(slots[1]))
	assertSlotError(t, err, services.MsgLeadTime)

	_, err = f.service.BookSession(ctx, "student-user", f.request(slots[3]))
	assertSlotError(t, err, services.MsgSlotInPast)

	booking, err := f.service.BookSession(ctx, "student-user", f.request(slots[2]))
	require.NoError(t, err)
	assert.True(t, booking.ScheduledDateTime.Equal(slots[2]))
}

func TestBookingService_BookSession_Rejections(t *testing.T) {
	f := newBookingFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.BookSession(ctx, "student-user", f.request(f.slot.Add(2*time.Minute)))
	assertSlotError(t, err, services.MsgSlotNotOffered)

	_, err = f.service.BookSession(ctx, "nobody", f.request(f.slot))
	assert.ErrorIs(t, err, services.ErrStudentProfileNotFound)

	_, err = f.service.BookSession(ctx, "student-user", &models.BookSessionRequest{
		MentorSessionID:   "11111111-1111-1111-1111-111111111111",
		ScheduledDateTime: f.slot,
	})
	assert.ErrorIs(t, err, services.ErrSessionNotFound)

	inactive := f.store.AddSession(models.MentorSession{
		MentorID:       f.mentor.ID,
		AvailableSlots: []time.Time{f.slot},
	})
	_, err = f.service.BookSession(ctx, "student-user", &models.BookSessionRequest{
		MentorSessionID:   inactive.ID,
		ScheduledDateTime: f.slot,
	})
	assertSlotError(t, err, services.MsgSessionUnavailable)

	expiredAt := time.Now().Add(-time.Minute)
	expired := f.store.AddSession(models.MentorSession{
		MentorID:       f.mentor.ID,
		AvailableSlots: []time.Time{f.slot},
		IsActive:       true,
		ExpiresAt:      &expiredAt,
	})
	_, err = f.service.BookSession(ctx, "student-user", &models.BookSessionRequest{
		MentorSessionID:   expired.ID,
		ScheduledDateTime: f.slot,
	})
	assertSlotError(t, err, services.MsgSessionUnavailable)

	f.reminders.AssertNotCalled(t, "EnqueueReminder", mock.Anything, mock.Anything)
}

func TestBookingService_BookSession_ReminderFailureKeepsBooking(t *testing.T) {
	store := memory.NewStore()
	student := store.AddStudent(models.StudentProfile{UserID: "student-user"})
	mentor := store.AddMentor(models.MentorProfile{UserID: "mentor-user", IsActive: true})
	slot := time.Now().UTC().Truncate(time.Minute).Add(48 * time.Hour)
	session := store.AddSession(models.MentorSession{MentorID: mentor.ID, AvailableSlots: []time.Time{slot}, IsActive: true})

	reminders := new(MockEnqueuer)
	reminders.On("EnqueueReminder", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	service := services.NewBookingService(store, services.BookingDeps{Reminders: reminders}, &config.Config{})

	booking, err := service.BookSession(context.Background(), "student-user", &models.BookSessionRequest{
		MentorSessionID:   session.ID,
		ScheduledDateTime: slot,
	})
	require.NoError(t, err)
	assert.Equal(t, student.ID, booking.StudentID)
}

func TestBookingService_CancelBooking(t *testing.T) {
	f := newBookingFixture(t, nil)
	ctx := context.Background()

	booking, err := f.service.BookSession(ctx, "student-user", f.request(f.slot))
	require.NoError(t, err)

	_, err = f.service.CancelBooking(ctx, studentUser("other-user"), booking.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	cancelled, err := f.service.CancelBooking(ctx, studentUser("student-user"), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	f.triggers.AssertCalled(t, "CallAsync", cancelledHook, booking.ID)

	_, err = f.service.CancelBooking(ctx, studentUser("student-user"), booking.ID)
	assert.ErrorIs(t, err, services.ErrBookingNotCancellable)

	_, err = f.service.BookSession(ctx, "other-user", f.request(f.slot))
	assert.NoError(t, err)
}

func TestBookingService_CancelBooking_ByMentor(t *testing.T) {
	f := newBookingFixture(t, nil)
	ctx := context.Background()

	booking, err := f.service.BookSession(ctx, "student-user", f.request(f.slot))
	require.NoError(t, err)

	cancelled, err := f.service.CancelBooking(ctx, &models.UserSession{UserID: "mentor-user", Role: "mentor"}, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
}

func TestBookingService_ListAndGet(t *testing.T) {
	f := newBookingFixture(t, nil)
	ctx := context.Background()

	booking, err := f.service.BookSession(ctx, "student-user", f.request(f.slot))
	require.NoError(t, err)

	mine, err := f.service.ListBookings(ctx, studentUser("student-user"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "A/L Biology", mine[0].SessionTitle)

	theirs, err := f.service.ListBookings(ctx, studentUser("other-user"))
	require.NoError(t, err)
	assert.Empty(t, theirs)

	mentorView, err := f.service.ListBookings(ctx, &models.UserSession{UserID: "mentor-user", Role: "mentor"})
	require.NoError(t, err)
	assert.Len(t, mentorView, 1)

	_, err = f.service.ListBookings(ctx, &models.UserSession{UserID: "x", Role: "admin"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.service.ListBookings(ctx, nil)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	got, err := f.service.GetBooking(ctx, studentUser("student-user"), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	_, err = f.service.GetBooking(ctx, studentUser("other-user"), booking.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.service.GetBooking(ctx, studentUser("student-user"), "missing")
	assert.ErrorIs(t, err, services.ErrBookingNotFound)
}

func TestBookingService_GetAvailableSlots(t *testing.T) {
	f := newBookingFixture(t, nil)
	ctx := context.Background()

	data, err := f.service.GetAvailableSlots(ctx, f.session.ID)
	require.NoError(t, err)
	require.Len(t, data.Slots, 2)
	assert.True(t, data.Slots[0].Equal(f.slot))

	_, err = f.service.BookSession(ctx, "student-user", f.request(f.slot))
	require.NoError(t, err)

	data, err = f.service.GetAvailableSlots(ctx, f.session.ID)
	require.NoError(t, err)
	require.Len(t, data.Slots, 1)
	assert.True(t, data.Slots[0].Equal(f.session.AvailableSlots[2]))

	booked, err := f.service.GetMentorBookedSlots(ctx, f.mentor.ID)
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.True(t, booked[0].ScheduledDateTime.Equal(f.slot))
	assert.Empty(t, booked[0].BookingID)

	_, err = f.service.GetAvailableSlots(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestBookingService_RequestPaymentSlipUpload(t *testing.T) {
	slips := new(MockSlipPresigner)
	f := newBookingFixture(t, slips)
	ctx := context.Background()
	expires := time.Now().Add(15 * time.Minute)

	booking, err := f.service.BookSession(ctx, "student-user", f.request(f.slot))
	require.NoError(t, err)

	slips.On("PresignUpload", mock.Anything, "payment-slips/"+booking.ID+".png", "image/png").
		Return("https://s3.example.com/upload", expires, nil)

	data, err := f.service.RequestPaymentSlipUpload(ctx, studentUser("student-user"), booking.ID, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com/upload", data.UploadURL)
	assert.Equal(t, models.PaymentSubmitted, data.PaymentStatus)

	_, err = f.service.RequestPaymentSlipUpload(ctx, &models.UserSession{UserID: "mentor-user", Role: "mentor"}, booking.ID, "image/png")
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.service.RequestPaymentSlipUpload(ctx, studentUser("student-user"), booking.ID, "text/plain")
	assert.Error(t, err)
}

func TestBookingService_RequestPaymentSlipUpload_StorageDisabled(t *testing.T) {
	f := newBookingFixture(t, nil)

	_, err := f.service.RequestPaymentSlipUpload(context.Background(), studentUser("student-user"), "any", "image/png")
	assert.ErrorIs(t, err, services.ErrStorageUnavailable)
}
