// Package client is the JSON-over-HTTP client shared by the remote intake
// and result adapters.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/pkg/metrics"
)

const (
	// DefaultTimeout bounds a single request including reading the body.
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries the run ID on every request.
	RequestIDHeader = "X-Request-ID"

	// MaxBodyBytes bounds a response body.
	MaxBodyBytes = 1 << 20
)

// ErrResponseTooLarge reports a body over MaxBodyBytes. It also matches
// model.ErrMalformedInput.
var ErrResponseTooLarge = errors.New("response too large")

type requestIDKey struct{}

// WithRequestID returns a context whose requests carry id in RequestIDHeader.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Client wraps http.Client with a timeout and per-endpoint metrics.
type Client struct {
	client  *http.Client
	timeout time.Duration
}

// New creates a client. A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Get performs a GET request. endpoint names the call in metrics.
func (c *Client) Get(ctx context.Context, endpoint, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(ctx, endpoint, req)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint, url string, body any) (Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, endpoint, req)
}

// do sends req and reads the body. Transport failures and timeouts are
// reported as model.ErrRemoteUnavailable; HTTP status is left to the caller.
func (c *Client) do(ctx context.Context, endpoint string, req *http.Request) (Response, error) {
	if id := RequestID(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordRemoteRequest(endpoint, 0, float64(time.Since(start).Milliseconds()))
		return Response{}, fmt.Errorf("%s %s: %w: %v", req.Method, req.URL.Redacted(), model.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	metrics.RecordRemoteRequest(endpoint, resp.StatusCode, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return Response{}, fmt.Errorf("read %s response: %w: %v", endpoint, model.ErrRemoteUnavailable, err)
	}
	if len(body) > MaxBodyBytes {
		return Response{}, fmt.Errorf("read %s response: %w: %w: over %d bytes", endpoint, ErrResponseTooLarge, model.ErrMalformedInput, MaxBodyBytes)
	}
	return Response{Status: resp.StatusCode, Body: body}, nil
}
