// Package httpclient provides the pacing and budget layer in front of every
// external metadata call: a minimum interval between consecutive requests,
// automatic retries, and a per-resolution-session call cap.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/cesargomez89/lavender/internal/constants"
)

// ErrBudgetExhausted is returned once a session has spent its call budget.
// Consumers treat it like any other transport failure and move to the next
// fallback stage.
var ErrBudgetExhausted = errors.New("session call budget exhausted")

// Doer executes a single HTTP request.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client wraps an http.Client with minimum-spacing rate limiting and
// automatic retries. The limiter is shared by all sessions so the external
// service sees one paced stream of requests regardless of concurrency.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new rate-limited, retrying HTTP client enforcing
// minInterval between consecutive dispatches.
func NewClient(httpClient *http.Client, minInterval time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: constants.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Do executes an HTTP request after waiting for a pacing slot, retrying
// transport failures with linear backoff.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < constants.DefaultRetryCount; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req.WithContext(ctx))
		if err == nil {
			return resp, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * constants.DefaultRetryBase):
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", constants.DefaultRetryCount, lastErr)
}

// Session is a call-budgeted view of a Client for one resolution session.
// Every request counts against the budget whether it succeeds or not.
type Session struct {
	client *Client
	limit  int64
	calls  atomic.Int64
}

// NewSession returns a session allowed at most limit external calls.
func (c *Client) NewSession(limit int) *Session {
	return &Session{
		client: c,
		limit:  int64(limit),
	}
}

func (s *Session) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if s.calls.Add(1) > s.limit {
		return nil, ErrBudgetExhausted
	}
	return s.client.Do(ctx, req)
}

// Calls reports how many requests the session has dispatched so far.
func (s *Session) Calls() int {
	n := s.calls.Load()
	if n > s.limit {
		n = s.limit
	}
	return int(n)
}
