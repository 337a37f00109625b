package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mentorhub/mentorhub-api/internal/middleware"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sessionID = "5f0c6a8e-3b1d-4c2e-9f7a-1d2e3f4a5b6c"

var student = &models.UserSession{UserID: "user-1", Role: "student"}

// withUser stands in for UserSessionMiddleware
func withUser(user *models.UserSession) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.UserSessionContextKey, user)
		}
		c.Next()
	}
}

func bookingRouter(svc *MockBookingService, user *models.UserSession) *gin.Engine {
	h := NewBookingHandler(svc)
	router := gin.New()
	router.Use(withUser(user))
	router.POST("/sessions/book", h.BookSession)
	router.GET("/sessions/:id/available-slots", h.GetAvailableSlots)
	router.GET("/bookings", h.ListBookings)
	router.GET("/bookings/:id", h.GetBooking)
	router.POST("/bookings/:id/cancel", h.CancelBooking)
	router.POST("/bookings/:id/payment-slip", h.RequestPaymentSlip)
	router.GET("/mentors/:id/booked-slots", h.GetMentorBookedSlots)
	return router
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func bookBody(at time.Time) string {
	return `{"mentorSessionId":"` + sessionID + `","scheduledDateTime":"` + at.Format(time.RFC3339) + `"}`
}

func TestBookingHandler_BookSession_Created(t *testing.T) {
	svc := new(MockBookingService)
	slot := time.Date(2031, 3, 10, 9, 0, 0, 0, time.UTC)

	svc.On("BookSession", mock.Anything, "user-1", mock.MatchedBy(func(r *models.BookSessionRequest) bool {
		return r.MentorSessionID == sessionID && r.ScheduledDateTime.Equal(slot)
	})).Return(&models.Booking{
		ID:                "b1",
		MentorSessionID:   sessionID,
		ScheduledDateTime: slot,
		Status:            models.BookingPending,
		Payment:           &models.Payment{ID: "p1", Amount: 2500, Status: models.PaymentPending},
	}, nil)

	w := serve(bookingRouter(svc, student), http.MethodPost, "/sessions/book", bookBody(slot))

	require.Equal(t, http.StatusCreated, w.Code)
	var resp models.BookSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "b1", resp.Data.ID)
	assert.Equal(t, models.BookingPending, resp.Data.Status)
	require.NotNil(t, resp.Data.Payment)
	assert.Equal(t, models.PaymentPending, resp.Data.Payment.Status)
	assert.NotEmpty(t, resp.Message)
}

func TestBookingHandler_BookSession_ErrorMapping(t *testing.T) {
	slot := time.Date(2031, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"conflict", services.ErrSlotConflict, http.StatusConflict, services.MsgSlotConflict},
		{"slot not offered", &services.SlotError{Reason: services.MsgSlotNotOffered}, http.StatusBadRequest, services.MsgSlotNotOffered},
		{"lead time", &services.SlotError{Reason: services.MsgLeadTime}, http.StatusBadRequest, services.MsgLeadTime},
		{"no profile", services.ErrStudentProfileNotFound, http.StatusNotFound, "Student profile not found"},
		{"session missing", services.ErrSessionNotFound, http.StatusNotFound, "Mentor session not found"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "Failed to book session"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBookingService)
			svc.On("BookSession", mock.Anything, "user-1", mock.Anything).Return(nil, tt.err)

			w := serve(bookingRouter(svc, student), http.MethodPost, "/sessions/book", bookBody(slot))

			assert.Equal(t, tt.status, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["error"])
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestBookingHandler_BookSession_Validation(t *testing.T) {
	svc := new(MockBookingService)
	router := bookingRouter(svc, student)

	w := serve(router, http.MethodPost, "/sessions/book", `{"mentorSessionId":"not-a-uuid","scheduledDateTime":"2031-03-10T09:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MentorSessionID must be a valid UUID")

	w = serve(router, http.MethodPost, "/sessions/book", `{"mentorSessionId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")

	svc.AssertNotCalled(t, "BookSession", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_Unauthenticated(t *testing.T) {
	svc := new(MockBookingService)
	router := bookingRouter(svc, nil)

	for _, path := range []string{"/bookings", "/bookings/b1"} {
		w := serve(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Unauthorized"}`, w.Body.String())
	}
}

func TestBookingHandler_GetBooking_Forbidden(t *testing.T) {
	svc := new(MockBookingService)
	svc.On("GetBooking", mock.Anything, student, "b1").Return(nil, services.ErrForbidden)

	w := serve(bookingRouter(svc, student), http.MethodGet, "/bookings/b1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookingHandler_CancelBooking(t *testing.T) {
	svc := new(MockBookingService)
	svc.On("CancelBooking", mock.Anything, student, "b1").Return(&models.Booking{ID: "b1", Status: models.BookingCancelled}, nil)
	svc.On("CancelBooking", mock.Anything, student, "b2").Return(nil, services.ErrBookingNotCancellable)
	router := bookingRouter(svc, student)

	w := serve(router, http.MethodPost, "/bookings/b1/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"CANCELLED"`)

	w = serve(router, http.MethodPost, "/bookings/b2/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingHandler_ListBookings(t *testing.T) {
	svc := new(MockBookingService)
	svc.On("ListBookings", mock.Anything, student).Return([]*models.Booking{{ID: "b1"}, {ID: "b2"}}, nil)

	w := serve(bookingRouter(svc, student), http.MethodGet, "/bookings", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.BookingListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
}

func TestBookingHandler_GetAvailableSlots(t *testing.T) {
	svc := new(MockBookingService)
	slot := time.Date(2031, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.On("GetAvailableSlots", mock.Anything, sessionID).Return(&models.AvailableSlotsData{
		MentorSessionID: sessionID,
		Slots:           []time.Time{slot},
	}, nil)

	w := serve(bookingRouter(svc, nil), http.MethodGet, "/sessions/"+sessionID+"/available-slots", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2031-03-10T09:00:00Z")
}

func TestBookingHandler_GetMentorBookedSlots_OmitsBookingID(t *testing.T) {
	svc := new(MockBookingService)
	at := time.Date(2031, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.On("GetMentorBookedSlots", mock.Anything, "m1").Return([]models.BookedSlot{
		{MentorSessionID: "s1", MentorID: "m1", ScheduledDateTime: at, Status: models.BookingPending},
	}, nil)

	w := serve(bookingRouter(svc, nil), http.MethodGet, "/mentors/m1/booked-slots", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2031-03-10T09:00:00Z")
	assert.NotContains(t, w.Body.String(), "bookingId")
}

func TestBookingHandler_GetMentorBookedSlots_EmptyIsArray(t *testing.T) {
	svc := new(MockBookingService)
	svc.On("GetMentorBookedSlots", mock.Anything, "m1").Return(nil, nil)

	w := serve(bookingRouter(svc, nil), http.MethodGet, "/mentors/m1/booked-slots", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestBookingHandler_RequestPaymentSlip(t *testing.T) {
	svc := new(MockBookingService)
	expires := time.Date(2031, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.On("RequestPaymentSlipUpload", mock.Anything, student, "b1", "image/png").Return(&models.PaymentSlipData{
		UploadURL:     "https://s3.example.com/put",
		ExpiresAt:     expires,
		PaymentStatus: models.PaymentSubmitted,
	}, nil)
	svc.On("RequestPaymentSlipUpload", mock.Anything, student, "b2", "image/png").Return(nil, services.ErrStorageUnavailable)
	router := bookingRouter(svc, student)

	w := serve(router, http.MethodPost, "/bookings/b1/payment-slip", `{"contentType":"image/png"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"paymentStatus":"SUBMITTED"`)

	w = serve(router, http.MethodPost, "/bookings/b2/payment-slip", `{"contentType":"image/png"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(router, http.MethodPost, "/bookings/b1/payment-slip", `{"contentType":"text/html"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchingHandler_MatchMentors(t *testing.T) {
	svc := new(MockMatchingService)
	resp := models.NewMatchMentorsResponse(nil, time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC))
	svc.On("MatchMentors", mock.Anything, "user-1", 5).Return(&resp, nil)
	svc.On("MatchMentors", mock.Anything, "user-1", -2).Return(nil, services.ErrInvalidLimit)

	h := NewMatchingHandler(svc)
	router := gin.New()
	router.Use(withUser(student))
	router.GET("/students/match-mentors", h.MatchMentors)

	w := serve(router, http.MethodGet, "/students/match-mentors?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"algorithm":"weighted-compatibility-v1"`)
	assert.Contains(t, w.Body.String(), `"matches":[]`)

	w = serve(router, http.MethodGet, "/students/match-mentors?limit=-2", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/students/match-mentors?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
