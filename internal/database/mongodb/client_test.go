package mongodb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mentorhub/mentorhub-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func writeConflict() mongo.WriteException {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 112, Message: "WriteConflict error: this operation conflicted with another operation"}},
		Labels:      []string{transientTransactionLabel},
	}
}

func TestClassifyBookingInsert_DuplicateSlotIsConflict(t *testing.T) {
	dup := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error collection: bookings index: uq_live_slot"}},
	}

	assert.ErrorIs(t, classifyBookingInsert(dup), repository.ErrSlotConflict)
}

func TestClassifyBookingInsert_TransientErrorsStayRetryable(t *testing.T) {
	cmdErr := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{transientTransactionLabel}}

	for name, err := range map[string]error{
		"write exception": writeConflict(),
		"command error":   cmdErr,
	} {
		t.Run(name, func(t *testing.T) {
			got := classifyBookingInsert(err)

			assert.Equal(t, err, got)
			assert.True(t, isTransientTransactionError(got))
			assert.NotErrorIs(t, got, repository.ErrSlotConflict)
		})
	}
}

func TestClassifyBookingInsert_OtherErrorsAreWrapped(t *testing.T) {
	cause := errors.New("connection reset")

	got := classifyBookingInsert(cause)

	assert.ErrorIs(t, got, cause)
	assert.Contains(t, got.Error(), "insert booking failed")
	assert.NoError(t, classifyBookingInsert(nil))
}

func TestIsTransientTransactionError(t *testing.T) {
	assert.True(t, isTransientTransactionError(fmt.Errorf("commit: %w", writeConflict())))
	assert.False(t, isTransientTransactionError(mongo.CommandError{Code: 112, Name: "WriteConflict"}))
	assert.False(t, isTransientTransactionError(errors.New("plain")))
}
