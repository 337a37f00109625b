package models

import "time"

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// PaymentStatus is the state of the manual bank-slip payment
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentSubmitted PaymentStatus = "SUBMITTED"
	PaymentVerified  PaymentStatus = "VERIFIED"
	PaymentRejected  PaymentStatus = "REJECTED"
)

// Booking reserves one slot of a mentor session for a student
type Booking struct {
	ID                string        `json:"id"`
	MentorSessionID   string        `json:"mentorSessionId"`
	MentorID          string        `json:"mentorId"`
	StudentID         string        `json:"studentId"`
	ScheduledDateTime time.Time     `json:"scheduledDateTime"`
	Status            BookingStatus `json:"status"`
	Notes             string        `json:"notes,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`

	// Filled by read paths that join related rows
	SessionTitle string   `json:"-"`
	Payment      *Payment `json:"-"`
}

// Payment is the placeholder created with each booking
type Payment struct {
	ID        string        `json:"id"`
	BookingID string        `json:"bookingId"`
	Amount    float64       `json:"amount"`
	Status    PaymentStatus `json:"status"`
	SlipKey   string        `json:"-"`
	CreatedAt time.Time     `json:"createdAt"`
}

// BookedSlot is an anonymised view of an occupied slot, used for client sync
type BookedSlot struct {
	BookingID         string        `json:"bookingId,omitempty"`
	MentorSessionID   string        `json:"mentorSessionId"`
	MentorID          string        `json:"mentorId"`
	SessionTitle      string        `json:"sessionTitle"`
	ScheduledDateTime time.Time     `json:"scheduledDateTime"`
	Status            BookingStatus `json:"status"`
}

// BookSessionRequest is the payload of POST /sessions/book
type BookSessionRequest struct {
	MentorSessionID   string    `json:"mentorSessionId" binding:"required,uuid"`
	ScheduledDateTime time.Time `json:"scheduledDateTime" binding:"required"`
	Notes             string    `json:"notes" binding:"max=1000"`
}

// PaymentSlipRequest asks for an upload URL for a bank slip
type PaymentSlipRequest struct {
	ContentType string `json:"contentType" binding:"required,oneof=image/jpeg image/png image/webp application/pdf"`
}
