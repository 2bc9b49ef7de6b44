// Package answer wraps the external query-answering service behind a retry
// policy. Callers pass a context with a deadline; only rate limits, server
// errors, and connection failures are retried.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseSize limits the response body read to guard against runaway
// payloads from the remote service.
const maxResponseSize = 1 << 20

// RetryConfig holds retry tuning for outbound calls.
type RetryConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BackoffBase: 500 * time.Millisecond,
		BackoffMax:  10 * time.Second,
	}
}

// Request is the outbound payload for the answering service.
type Request struct {
	Query string `json:"query"`
}

// Response is the answering service's reply.
type Response struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// Client calls the external query-answering service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(client *Client) {
		if cfg.MaxAttempts > 0 {
			client.retry = cfg
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient constructs a Client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retry:  DefaultRetryConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask sends the query, retrying transient failures with exponential backoff
// and jitter until the attempt budget or the context deadline runs out.
func (c *Client) Ask(ctx context.Context, query string) (*Response, error) {
	if query == "" {
		return nil, NewFatalError(fmt.Errorf("query is required"))
	}
	if c.baseURL == "" {
		return nil, NewFatalError(fmt.Errorf("answer service not configured"))
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		resp, err := c.doRequest(ctx, query)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if IsFatal(err) {
			return nil, err
		}
		if attempt < c.retry.MaxAttempts {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debug("answer request failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.retry.MaxAttempts),
				zap.Duration("backoff", backoff),
				zap.Error(err))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("answer service failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

// calculateBackoff doubles the base per attempt, capped at BackoffMax, with
// +/-25% jitter to avoid synchronized retries.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retry.BackoffBase
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.retry.BackoffMax {
		backoff = c.retry.BackoffMax
	}
	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}

func (c *Client) doRequest(ctx context.Context, query string) (*Response, error) {
	body, err := json.Marshal(Request{Query: query})
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("marshal answer request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/answer", bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create answer request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection resets and timeouts are transient.
		return nil, NewTransientError(fmt.Errorf("answer request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read answer response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(httpResp.StatusCode, respBody)
	}

	var parsed Response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, NewFatalError(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	return &parsed, nil
}

// classifyHTTPError separates retryable statuses (429 and 5xx) from fatal
// ones (everything else).
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("answer service error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewTransientError(err)
	case statusCode >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}
