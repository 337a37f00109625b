package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/pkg/circuitbreaker"
	"github.com/mentorhub/mentorhub-api/pkg/httpclient"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
)

var (
	// ErrSlotConflict is returned when the server reports the slot as taken
	ErrSlotConflict = errors.New("slot already booked")

	// ErrUnauthorized is returned for a missing or expired session token
	ErrUnauthorized = errors.New("unauthorized")
)

// GuardError is returned when the local pre-check rejects a booking before
// any request is sent
type GuardError struct {
	Reason string
}

func (e *GuardError) Error() string { return e.Reason }

// APIError is any other non-success response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client
type Config struct {
	BaseURL string
	Token   string
}

// Client talks to the booking API and keeps the local mirror current
type Client struct {
	baseURL string
	token   string
	http    httpclient.Client
	breaker *circuitbreaker.Breaker
	store   *Store
	guard   *Guard
}

// New creates a client. A nil httpClient uses a 15s timeout client.
func New(cfg Config, httpClient httpclient.Client, store *Store) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewClientWithTimeout(15 * time.Second)
	}
	if store == nil {
		store = NewStore(nil)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    httpClient,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("mentorhub-api")),
		store:   store,
		guard:   NewGuard(store),
	}
}

// Store returns the local mirror
func (c *Client) Store() *Store { return c.store }

// Guard returns the pre-check bound to the local mirror
func (c *Client) Guard() *Guard { return c.guard }

// BookSession pre-checks the slot locally, then books it. On a server-side
// conflict the mentor's slots are resynced before ErrSlotConflict is returned.
func (c *Client) BookSession(ctx context.Context, mentorID string, req models.BookSessionRequest) (*models.BookingView, error) {
	if result := c.guard.ValidateBooking(mentorID, req.ScheduledDateTime, ""); !result.IsValid {
		return nil, &GuardError{Reason: result.Error}
	}

	var resp models.BookSessionResponse
	status, err := c.doJSON(ctx, http.MethodPost, "/api/v1/sessions/book", req, &resp)
	if err != nil {
		if status == http.StatusConflict {
			if syncErr := c.SyncMentor(ctx, mentorID); syncErr != nil {
				logger.Warn("Resync after booking conflict failed",
					zap.String("mentor_id", mentorID), zap.Error(syncErr))
			}
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	booked := models.BookedSlot{
		BookingID:         resp.Data.ID,
		MentorSessionID:   resp.Data.MentorSessionID,
		MentorID:          mentorID,
		SessionTitle:      resp.Data.SessionTitle,
		ScheduledDateTime: resp.Data.ScheduledDateTime,
		Status:            resp.Data.Status,
	}
	if err := c.store.Add(ctx, booked); err != nil {
		logger.Warn("Failed to record booking locally", zap.String("booking_id", booked.BookingID), zap.Error(err))
	}
	return &resp.Data, nil
}

// CancelBooking cancels a booking, drops it from the mirror and resyncs the
// mentor. Synced slots carry no booking id, so the resync is what clears them.
func (c *Client) CancelBooking(ctx context.Context, bookingID string) (*models.BookingView, error) {
	var resp models.BookingResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/v1/bookings/"+url.PathEscape(bookingID)+"/cancel", nil, &resp); err != nil {
		return nil, err
	}
	if err := c.store.Remove(ctx, bookingID); err != nil {
		logger.Warn("Failed to drop booking locally", zap.String("booking_id", bookingID), zap.Error(err))
	}
	if mentorID := resp.Data.MentorID; mentorID != "" {
		if err := c.SyncMentor(ctx, mentorID); err != nil {
			logger.Warn("Resync after cancellation failed", zap.String("mentor_id", mentorID), zap.Error(err))
		}
	}
	return &resp.Data, nil
}

// FetchBookedSlots reads the occupied slots of a mentor. Calls go through a
// circuit breaker so a failing API is not polled continuously.
func (c *Client) FetchBookedSlots(ctx context.Context, mentorID string) (*models.BookedSlotsResponse, error) {
	return circuitbreaker.Execute(c.breaker, func() (*models.BookedSlotsResponse, error) {
		var resp models.BookedSlotsResponse
		if _, err := c.doJSON(ctx, http.MethodGet, "/api/v1/mentors/"+url.PathEscape(mentorID)+"/booked-slots", nil, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
}

// SyncMentor refreshes one mentor in the mirror
func (c *Client) SyncMentor(ctx context.Context, mentorID string) error {
	resp, err := c.FetchBookedSlots(ctx, mentorID)
	if err != nil {
		return err
	}
	syncedAt := resp.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}
	return c.store.Replace(ctx, mentorID, resp.Data, syncedAt)
}

// doJSON sends body as JSON and decodes a 2xx response into out. It returns
// the HTTP status alongside any error.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, responseError(resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func responseError(status int, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(data, &body) //nolint:errcheck // message is best effort

	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrSlotConflict, body.Error)
	}
	return &APIError{StatusCode: status, Message: body.Error}
}
