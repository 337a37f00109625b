package trigger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mentorhub/mentorhub-api/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaller_Call(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query().Get("record_id")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewCaller(httpclient.NewStandardClient())
	require.NoError(t, c.Call(context.Background(), srv.URL+"/hook?source=api", "booking-1"))
	assert.Equal(t, "booking-1", gotID)
}

func TestCaller_CallNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewCaller(httpclient.NewStandardClient())
	err := c.Call(context.Background(), srv.URL, "booking-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCaller_EmptyURLIsNoop(t *testing.T) {
	c := NewCaller(httpclient.NewStandardClient())
	assert.NoError(t, c.Call(context.Background(), "", "booking-1"))
	c.CallAsync("", "booking-1")
}
