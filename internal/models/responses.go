package models

import "time"

// BookingView is the client-facing representation of a booking and its payment
type BookingView struct {
	ID                string        `json:"id"`
	MentorSessionID   string        `json:"mentorSessionId"`
	SessionTitle      string        `json:"sessionTitle,omitempty"`
	MentorID          string        `json:"mentorId"`
	StudentID         string        `json:"studentId"`
	ScheduledDateTime time.Time     `json:"scheduledDateTime"`
	Status            BookingStatus `json:"status"`
	Notes             string        `json:"notes,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	Payment           *PaymentView  `json:"payment,omitempty"`
}

// PaymentView is the client-facing representation of a payment
type PaymentView struct {
	ID     string        `json:"id"`
	Amount float64       `json:"amount"`
	Status PaymentStatus `json:"status"`
}

// BookSessionResponse is returned by POST /sessions/book
type BookSessionResponse struct {
	Success bool        `json:"success"`
	Data    BookingView `json:"data"`
	Message string      `json:"message"`
}

// BookingResponse wraps a single booking
type BookingResponse struct {
	Success bool        `json:"success"`
	Data    BookingView `json:"data"`
	Message string      `json:"message,omitempty"`
}

// BookingListResponse wraps a list of bookings
type BookingListResponse struct {
	Success bool          `json:"success"`
	Data    []BookingView `json:"data"`
	Total   int           `json:"total"`
}

// AvailableSlotsData lists the still-bookable slots of a session
type AvailableSlotsData struct {
	MentorSessionID string      `json:"mentorSessionId"`
	Slots           []time.Time `json:"slots"`
}

// AvailableSlotsResponse is returned by GET /sessions/:id/available-slots
type AvailableSlotsResponse struct {
	Success bool               `json:"success"`
	Data    AvailableSlotsData `json:"data"`
}

// BookedSlotsResponse is returned by GET /mentors/:id/booked-slots
type BookedSlotsResponse struct {
	Success  bool         `json:"success"`
	Data     []BookedSlot `json:"data"`
	SyncedAt time.Time    `json:"syncedAt"`
}

// PaymentSlipData carries the presigned upload target
type PaymentSlipData struct {
	UploadURL     string        `json:"uploadUrl"`
	ExpiresAt     time.Time     `json:"expiresAt"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// PaymentSlipResponse is returned by POST /bookings/:id/payment-slip
type PaymentSlipResponse struct {
	Success bool            `json:"success"`
	Data    PaymentSlipData `json:"data"`
}

// NewBookingView maps a booking (and its payment, when loaded) to the API shape
func NewBookingView(b *Booking) BookingView {
	view := BookingView{
		ID:                b.ID,
		MentorSessionID:   b.MentorSessionID,
		SessionTitle:      b.SessionTitle,
		MentorID:          b.MentorID,
		StudentID:         b.StudentID,
		ScheduledDateTime: b.ScheduledDateTime.UTC(),
		Status:            b.Status,
		Notes:             b.Notes,
		CreatedAt:         b.CreatedAt.UTC(),
	}
	if b.Payment != nil {
		view.Payment = &PaymentView{
			ID:     b.Payment.ID,
			Amount: b.Payment.Amount,
			Status: b.Payment.Status,
		}
	}
	return view
}

// NewBookSessionResponse builds the 201 body for a created booking
func NewBookSessionResponse(b *Booking) BookSessionResponse {
	return BookSessionResponse{
		Success: true,
		Data:    NewBookingView(b),
		Message: "Session booked successfully. Upload your payment slip to confirm.",
	}
}

// NewBookingListResponse maps a list of bookings
func NewBookingListResponse(bookings []*Booking) BookingListResponse {
	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, NewBookingView(b))
	}
	return BookingListResponse{Success: true, Data: views, Total: len(views)}
}
