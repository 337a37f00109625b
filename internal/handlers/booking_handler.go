package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mentorhub/mentorhub-api/internal/middleware"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/services"
)

// BookingHandler handles booking, availability and payment slip endpoints
type BookingHandler struct {
	service services.BookingServiceInterface
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(service services.BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: service}
}

// BookSession handles POST /api/v1/sessions/book
func (h *BookingHandler) BookSession(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.BookSessionRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		message, details := bindingFailure(bindErr)
		respondErrorWithDetails(c, http.StatusBadRequest, message, details, bindErr)
		return
	}

	booking, err := h.service.BookSession(c.Request.Context(), session.UserID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to book session")
		return
	}

	c.JSON(http.StatusCreated, models.NewBookSessionResponse(booking))
}

// GetAvailableSlots handles GET /api/v1/sessions/:id/available-slots
func (h *BookingHandler) GetAvailableSlots(c *gin.Context) {
	data, err := h.service.GetAvailableSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to load available slots")
		return
	}

	c.JSON(http.StatusOK, models.AvailableSlotsResponse{Success: true, Data: *data})
}

// ListBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), session)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch bookings")
		return
	}

	c.JSON(http.StatusOK, models.NewBookingListResponse(bookings))
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch booking")
		return
	}

	c.JSON(http.StatusOK, models.BookingResponse{Success: true, Data: models.NewBookingView(booking)})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	booking, err := h.service.CancelBooking(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to cancel booking")
		return
	}

	c.JSON(http.StatusOK, models.BookingResponse{
		Success: true,
		Data:    models.NewBookingView(booking),
		Message: "Booking cancelled",
	})
}

// RequestPaymentSlip handles POST /api/v1/bookings/:id/payment-slip
func (h *BookingHandler) RequestPaymentSlip(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.PaymentSlipRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		message, details := bindingFailure(bindErr)
		respondErrorWithDetails(c, http.StatusBadRequest, message, details, bindErr)
		return
	}

	data, err := h.service.RequestPaymentSlipUpload(c.Request.Context(), session, c.Param("id"), req.ContentType)
	if err != nil {
		respondServiceError(c, err, "Failed to prepare payment slip upload")
		return
	}

	c.JSON(http.StatusOK, models.PaymentSlipResponse{Success: true, Data: *data})
}

// GetMentorBookedSlots handles GET /api/v1/mentors/:id/booked-slots
func (h *BookingHandler) GetMentorBookedSlots(c *gin.Context) {
	slots, err := h.service.GetMentorBookedSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch booked slots")
		return
	}
	if slots == nil {
		slots = []models.BookedSlot{}
	}

	c.JSON(http.StatusOK, models.BookedSlotsResponse{
		Success:  true,
		Data:     slots,
		SyncedAt: time.Now().UTC(),
	})
}
