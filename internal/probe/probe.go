// Package probe checks that a provisioned service answers HTTP requests.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single health request.
const DefaultTimeout = 5 * time.Second

// ErrUnhealthy is returned when the service answers with a non-2xx status.
var ErrUnhealthy = errors.New("unhealthy response")

// Result holds the outcome of a health request.
type Result struct {
	URL        string
	StatusCode int
	Latency    time.Duration
}

// Checker issues health requests.
type Checker struct {
	Client *http.Client
}

// NewChecker creates a checker whose requests time out after timeout.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Check sends a GET to url. Any 2xx status is healthy.
func (c *Checker) Check(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	result := &Result{
		URL:        url,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fmt.Errorf("%w: %s returned %d", ErrUnhealthy, url, resp.StatusCode)
	}
	return result, nil
}

// Check probes url with a default checker.
func Check(ctx context.Context, url string) (*Result, error) {
	return NewChecker(DefaultTimeout).Check(ctx, url)
}
