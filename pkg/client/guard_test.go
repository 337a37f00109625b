package client

import (
	"context"
	"testing"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/availability"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var guardNow = time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)

func guardWith(t *testing.T, slots ...models.BookedSlot) *Guard {
	t.Helper()
	store := NewStore(nil)
	require.NoError(t, store.Replace(context.Background(), "m1", slots, guardNow))
	g := NewGuard(store)
	g.now = func() time.Time { return guardNow }
	return g
}

func TestGuard_LeadTime(t *testing.T) {
	g := guardWith(t)

	oneHour := g.ValidateBooking("m1", guardNow.Add(time.Hour), "")
	assert.False(t, oneHour.IsValid)
	assert.Equal(t, "Please book at least 2 hours in advance", oneHour.Error)

	threeHours := g.ValidateBooking("m1", guardNow.Add(3*time.Hour), "")
	assert.True(t, threeHours.IsValid)
	assert.Empty(t, threeHours.Error)

	past := g.ValidateBooking("m1", guardNow.Add(-time.Minute), "")
	assert.False(t, past.IsValid)
	assert.Equal(t, availability.MsgSlotInPast, past.Error)
}

func TestGuard_LocalConflictNamesSession(t *testing.T) {
	at := guardNow.Add(24 * time.Hour)
	g := guardWith(t, models.BookedSlot{
		BookingID:         "b1",
		MentorID:          "m1",
		SessionTitle:      "A/L Biology",
		ScheduledDateTime: at,
		Status:            models.BookingConfirmed,
	})

	result := g.ValidateBooking("m1", at.Add(30*time.Second), "")
	assert.False(t, result.IsValid)
	assert.Equal(t, `This time slot is already booked for "A/L Biology"`, result.Error)

	assert.True(t, g.ValidateBooking("m1", at, "b1").IsValid)
	assert.True(t, g.ValidateBooking("m2", at, "").IsValid)
	assert.True(t, g.ValidateBooking("m1", at.Add(2*time.Minute), "").IsValid)
}

func TestGuard_ConflictCheckedBeforeLeadTime(t *testing.T) {
	at := guardNow.Add(30 * time.Minute)
	g := guardWith(t, models.BookedSlot{BookingID: "b1", MentorID: "m1", ScheduledDateTime: at, Status: models.BookingPending})

	assert.Equal(t, "This time slot is already booked", g.ValidateBooking("m1", at, "").Error)
}

func TestGuard_CancelledDoesNotBlock(t *testing.T) {
	at := guardNow.Add(24 * time.Hour)
	g := guardWith(t, models.BookedSlot{BookingID: "b1", MentorID: "m1", ScheduledDateTime: at, Status: models.BookingCancelled})

	assert.True(t, g.ValidateBooking("m1", at, "").IsValid)
}

func TestComposeDateTime(t *testing.T) {
	colombo := time.FixedZone("IST", 5*3600+1800)

	got, err := ComposeDateTime("2030-06-02", "14:30", colombo)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 6, 2, 9, 0, 0, 0, time.UTC), got)

	got, err = ComposeDateTime("2030-06-02", "14:30", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 6, 2, 14, 30, 0, 0, time.UTC), got)

	_, err = ComposeDateTime("02/06/2030", "2pm", nil)
	assert.Error(t, err)
}
