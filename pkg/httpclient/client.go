// Package httpclient provides the outbound HTTP client used for webhooks
// and by the Go SDK.
package httpclient

import (
	"net/http"
	"time"
)

const defaultUserAgent = "mentorhub-api"

// Client sends a prepared request. Tests substitute a fake.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// StandardHTTPClient wraps http.Client and stamps a User-Agent
type StandardHTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewStandardClient creates a client with a 30s timeout
func NewStandardClient() Client {
	return NewClientWithTimeout(30 * time.Second)
}

// NewClientWithTimeout creates a client with the given overall timeout
func NewClientWithTimeout(timeout time.Duration) Client {
	return &StandardHTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

// Do executes req, adding a User-Agent when the caller did not set one
func (c *StandardHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.client.Do(req)
}
