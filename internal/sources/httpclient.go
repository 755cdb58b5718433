package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// HTTPClientConfig configures the shared HTTP client.
type HTTPClientConfig struct {
	// Timeout is the per-request timeout. Exceeding it is a transient
	// failure, not a "not found".
	Timeout time.Duration

	// RateLimit is the maximum requests per second to the source.
	RateLimit float64

	// Burst is the maximum burst of requests allowed. Defaults to 1,
	// which gives strict 1/rate spacing between consecutive requests.
	Burst int

	// MaxRetries is the maximum number of retry attempts on 429/5xx.
	MaxRetries int

	// RetryDelay is the base delay between retries; the delay doubles on
	// each attempt unless the source supplies a Retry-After header.
	RetryDelay time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// APIKey and APIKeyHeader optionally authenticate requests.
	APIKey       string
	APIKeyHeader string
}

// HTTPClient wraps http.Client with per-source rate limiting and bounded
// retry. It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

// NewHTTPClient creates an HTTP client for one external source.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1
	}
	if cfg.Burst == 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "confcloud/1.0 (conference word-cloud pipeline)"
	}

	return &HTTPClient{
		client:      &http.Client{Timeout: cfg.Timeout},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.Burst),
		config:      cfg,
	}
}

// Do executes a request, waiting on the rate limiter before each attempt.
// 429 and 5xx responses are retried up to MaxRetries times with doubling
// delay, honoring Retry-After when present. Other responses, including
// 404, are returned to the caller for interpretation.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < c.config.MaxRetries {
				if err := c.sleep(req.Context(), c.backoff(attempt)); err != nil {
					return nil, err
				}
				if err := resetBody(req); err != nil {
					return nil, fmt.Errorf("cannot retry request: %w", err)
				}
				continue
			}
			return nil, lastErr
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		delay := c.retryAfter(resp, attempt)
		drainAndClose(resp.Body)

		if attempt == c.config.MaxRetries {
			return nil, fmt.Errorf("max retries exhausted after %d attempts, last status: %d",
				c.config.MaxRetries+1, resp.StatusCode)
		}
		lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
		if err := c.sleep(req.Context(), delay); err != nil {
			return nil, err
		}
		if err := resetBody(req); err != nil {
			return nil, fmt.Errorf("cannot retry request: %w", err)
		}
	}

	return nil, lastErr
}

// backoff returns the delay before the given retry attempt, doubling each
// time: RetryDelay, 2*RetryDelay, 4*RetryDelay, ...
func (c *HTTPClient) backoff(attempt int) time.Duration {
	return c.config.RetryDelay << uint(attempt)
}

// retryAfter honors a Retry-After header (seconds or HTTP date), falling
// back to the exponential schedule.
func (c *HTTPClient) retryAfter(resp *http.Response, attempt int) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return c.backoff(attempt)
	}
	if seconds, err := strconv.ParseInt(header, 10, 64); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}
	return c.backoff(attempt)
}

func (c *HTTPClient) sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryableStatus(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// resetBody restores the request body before a retry. Requests with a body
// must set GetBody (http.NewRequest does for common reader types).
func resetBody(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("get request body: %w", err)
	}
	req.Body = body
	return nil
}
