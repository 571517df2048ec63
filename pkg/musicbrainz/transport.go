package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// maxErrorBody bounds how much of an error response is read for its message
const maxErrorBody = 4 << 10

// get performs a GET request against the web service and decodes the
// JSON response into out, retrying temporary failures.
//
// It handles:
// - Request construction with the required User-Agent
// - JSON decoding of success and error bodies
// - Retry with exponential backoff on rate limiting and network errors
// - Context cancellation
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("fmt", "json")
	endpoint := c.baseURL + path + "?" + query.Encode()

	var lastErr error
	backoff := c.backoff

	for i := 0; i < c.maxRetries; i++ {
		c.logDebugf("musicbrainz: GET %s (attempt %d/%d)", path, i+1, c.maxRetries)

		err := c.do(ctx, endpoint, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) || i == c.maxRetries-1 {
			break
		}
		c.logDebugf("musicbrainz: temporary failure, retrying: %v", err)
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}

	return lastErr
}

func (c *Client) do(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// newError builds an *Error from a non-2xx response, using the service's
// {"error": "..."} body when there is one.
func newError(resp *http.Response) *Error {
	e := &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return e
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		e.Message = payload.Error
	}
	return e
}

// isRetryable reports whether a request error is worth another attempt
func isRetryable(err error) bool {
	var mbErr *Error
	if errors.As(err, &mbErr) {
		return mbErr.Temporary()
	}

	// A cancelled or expired context is never retried
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(duration):
		return true
	}
}

// nextBackoff calculates the next backoff duration with exponential increase.
// Maximum backoff is capped at 30 seconds.
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > 30*time.Second {
		return 30 * time.Second
	}
	return next
}
