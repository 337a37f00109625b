// Package availability holds the slot rules shared by the booking service and
// the Go client. Both sides import these constants so they cannot drift.
package availability

import (
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
)

const (
	// SlotTolerance is the largest distance between a requested time and a
	// published slot that still counts as that slot. It absorbs clock skew and
	// serialization rounding.
	SlotTolerance = 60 * time.Second

	// MinLeadTime is how far ahead of the start a slot must be booked.
	MinLeadTime = 2 * time.Hour
)

// Explanations shown to users when a start time is rejected
const (
	MsgSlotInPast = "Cannot book a session in the past"
	MsgLeadTime   = "Please book at least 2 hours in advance"
)

// ActiveStatuses are the booking states that occupy a slot.
var ActiveStatuses = []models.BookingStatus{
	models.BookingPending,
	models.BookingConfirmed,
	models.BookingCompleted,
}

// IsActiveStatus reports whether a booking in status occupies its slot.
func IsActiveStatus(status models.BookingStatus) bool {
	for _, s := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// WithinTolerance reports whether a and b are at most SlotTolerance apart.
func WithinTolerance(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= SlotTolerance
}

// MatchSlot returns the first published slot within tolerance of t.
func MatchSlot(session *models.MentorSession, t time.Time) (time.Time, bool) {
	if session == nil {
		return time.Time{}, false
	}
	for _, slot := range session.AvailableSlots {
		if WithinTolerance(slot, t) {
			return slot, true
		}
	}
	return time.Time{}, false
}

// Occupies reports whether booking holds the given slot of the session.
func Occupies(b *models.Booking, sessionID string, slot time.Time) bool {
	return b.MentorSessionID == sessionID &&
		b.ScheduledDateTime.Equal(slot) &&
		b.Status != models.BookingCancelled
}

// IsAvailable reports whether t names a published slot of session that no
// non-cancelled booking holds.
func IsAvailable(session *models.MentorSession, t time.Time, bookings []*models.Booking) bool {
	slot, ok := MatchSlot(session, t)
	if !ok {
		return false
	}
	for _, b := range bookings {
		// Bookings are stored at the canonical slot; also check the raw
		// requested instant for data written before canonicalisation.
		if Occupies(b, session.ID, slot) || Occupies(b, session.ID, t) {
			return false
		}
	}
	return true
}

// LeadTimeViolation describes why a start time is too soon.
type LeadTimeViolation int

const (
	LeadTimeOK LeadTimeViolation = iota
	LeadTimeInPast
	LeadTimeTooSoon
)

// CheckLeadTime classifies start relative to now.
func CheckLeadTime(start, now time.Time) LeadTimeViolation {
	switch {
	case !start.After(now):
		return LeadTimeInPast
	case start.Sub(now) < MinLeadTime:
		return LeadTimeTooSoon
	default:
		return LeadTimeOK
	}
}

// OpenSlots returns the published slots of session that are free and at
// least MinLeadTime after now, in published order.
func OpenSlots(session *models.MentorSession, bookings []*models.Booking, now time.Time) []time.Time {
	open := make([]time.Time, 0, len(session.AvailableSlots))
	for _, slot := range session.AvailableSlots {
		if CheckLeadTime(slot, now) != LeadTimeOK {
			continue
		}
		taken := false
		for _, b := range bookings {
			if Occupies(b, session.ID, slot) {
				taken = true
				break
			}
		}
		if !taken {
			open = append(open, slot)
		}
	}
	return open
}
