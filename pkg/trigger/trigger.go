package trigger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mentorhub/mentorhub-api/pkg/circuitbreaker"
	"github.com/mentorhub/mentorhub-api/pkg/httpclient"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
)

// Caller fires event webhooks (booking created, reminders) with a record_id
// query parameter. All calls share one circuit breaker so a dead endpoint
// does not pile up goroutines.
type Caller struct {
	httpClient httpclient.Client
	breaker    *circuitbreaker.Breaker
}

// NewCaller creates a trigger caller
func NewCaller(httpClient httpclient.Client) *Caller {
	return &Caller{
		httpClient: httpClient,
		breaker:    circuitbreaker.New(circuitbreaker.DefaultConfig("event-triggers")),
	}
}

// CallAsync calls the trigger URL in the background.
// Failures are logged but don't block the operation.
func (c *Caller) CallAsync(triggerURL, recordID string) {
	if c == nil || triggerURL == "" {
		return
	}

	go func() {
		if err := c.Call(context.Background(), triggerURL, recordID); err != nil {
			logger.Error("Failed to call trigger URL",
				zap.Error(err),
				zap.String("url", triggerURL),
				zap.String("record_id", recordID))
		}
	}()
}

// Call calls the trigger URL synchronously and returns an error for
// transport failures and non-2xx responses.
func (c *Caller) Call(ctx context.Context, triggerURL, recordID string) error {
	if triggerURL == "" {
		return nil
	}

	targetURL, err := buildURL(triggerURL, recordID)
	if err != nil {
		return err
	}

	status, err := circuitbreaker.Execute(c.breaker, func() (int, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, http.NoBody)
		if reqErr != nil {
			return 0, reqErr
		}
		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return 0, doErr
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp.StatusCode, fmt.Errorf("trigger returned status %d", resp.StatusCode)
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		return err
	}

	logger.Info("Trigger URL called successfully",
		zap.String("url", targetURL),
		zap.String("record_id", recordID),
		zap.Int("status_code", status))
	return nil
}

func buildURL(triggerURL, recordID string) (string, error) {
	u, err := url.Parse(triggerURL)
	if err != nil {
		return "", fmt.Errorf("invalid trigger url: %w", err)
	}
	q := u.Query()
	q.Set("record_id", recordID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
