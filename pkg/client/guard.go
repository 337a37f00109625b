package client

import (
	"fmt"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/availability"
)

// ValidationResult is the outcome of a local pre-check
type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

// Guard pre-checks bookings against the local mirror. It is advisory only.
type Guard struct {
	store *Store
	now   func() time.Time
}

func NewGuard(store *Store) *Guard {
	return &Guard{store: store, now: time.Now}
}

// ValidateBooking checks, in order, for a known booking of the same mentor
// at the same time, a start in the past and a start inside the lead time.
// A booking whose ID equals excludeBookingID is ignored, which lets a
// reschedule validate against everything but itself.
func (g *Guard) ValidateBooking(mentorID string, at time.Time, excludeBookingID string) ValidationResult {
	for _, slot := range g.store.Slots(mentorID) {
		if excludeBookingID != "" && slot.BookingID == excludeBookingID {
			continue
		}
		if !availability.IsActiveStatus(slot.Status) {
			continue
		}
		if availability.WithinTolerance(slot.ScheduledDateTime, at) {
			return rejected(conflictMessage(slot.SessionTitle))
		}
	}

	switch availability.CheckLeadTime(at, g.now()) {
	case availability.LeadTimeInPast:
		return rejected(availability.MsgSlotInPast)
	case availability.LeadTimeTooSoon:
		return rejected(availability.MsgLeadTime)
	}

	return ValidationResult{IsValid: true}
}

func conflictMessage(title string) string {
	if title == "" {
		return "This time slot is already booked"
	}
	return fmt.Sprintf("This time slot is already booked for %q", title)
}

func rejected(reason string) ValidationResult {
	return ValidationResult{IsValid: false, Error: reason}
}

// ComposeDateTime joins a calendar date (2006-01-02) and a wall clock time
// (15:04) in loc into one UTC instant. A nil loc means UTC.
func ComposeDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date or time %q %q: %w", date, clock, err)
	}
	return t.UTC(), nil
}
