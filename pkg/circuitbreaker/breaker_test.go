package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_TripsAfterFailures(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.Timeout = time.Minute
	b := New(cfg)

	for i := 0; i < 3; i++ {
		_, err := Execute(b, func() (int, error) { return 0, errors.New("down") })
		require.Error(t, err)
	}

	assert.True(t, b.IsOpen())

	_, err := Execute(b, func() (int, error) { return 1, nil })
	require.Error(t, err)
	assert.True(t, IsRejected(err))
}

func TestBreaker_PassesResult(t *testing.T) {
	b := New(DefaultConfig("ok"))

	got, err := Execute(b, func() (string, error) { return "hello", nil })
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, "closed", b.State())
}
