package summary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// maxBodyBytes caps how much of a response body is read. A longer body is
// truncated and fails validation.
const maxBodyBytes = 8 << 20

// Fetcher retrieves and validates the summary list at url.
type Fetcher interface {
	GetSummaries(ctx context.Context, url string) ([]Summary, error)
}

// Client talks to the dashboard proxy over HTTP.
type Client struct {
	http    *http.Client
	log     *slog.Logger
	newID   func() string
	timeout *time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the transport-level request timeout. Zero disables it.
// It applies to whichever *http.Client the options end up selecting.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = &d }
}

// WithClientLogger sets the logger for request diagnostics.
func WithClientLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:  &http.Client{},
		log:   slog.Default(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.http
		hc.Timeout = *c.timeout
		c.http = &hc
	}
	c.log = c.log.With("component", "summary-client")
	return c
}

// GetSummaries issues one GET to url and validates the body. Failures are
// *TransportError or wrap ErrInvalidShape.
func (c *Client) GetSummaries(ctx context.Context, url string) ([]Summary, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

// Health checks the proxy health endpoint. Any 2xx status is healthy.
func (c *Client) Health(ctx context.Context, url string) error {
	_, err := c.get(ctx, url)
	return err
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("build request: %w", err)}
	}
	id := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", id)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("Proxy response",
		"request_id", id, "url", url,
		"status", resp.StatusCode, "elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &TransportError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
