package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlipKey(t *testing.T) {
	key, err := SlipKey("b-1", "image/PNG")
	require.NoError(t, err)
	assert.Equal(t, "payment-slips/b-1.png", key)

	key, err = SlipKey("b-2", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "payment-slips/b-2.pdf", key)

	_, err = SlipKey("b-3", "text/html")
	assert.Error(t, err)
}

func TestNewSlipStorage_RequiresBucket(t *testing.T) {
	_, err := NewSlipStorage(Config{})
	assert.Error(t, err)
}

func TestPresignUpload_IsOffline(t *testing.T) {
	s, err := NewSlipStorage(Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "slips",
		Endpoint:        "http://127.0.0.1:9000",
		PresignTTL:      time.Minute,
	})
	require.NoError(t, err)

	url, expires, err := s.PresignUpload(context.Background(), "payment-slips/b-1.png", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/slips/payment-slips/b-1.png?"))
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 5*time.Second)
}
