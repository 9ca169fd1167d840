// Package api is a typed client for the Health Republic REST backend.
//
// Every method takes a context and, for authenticated endpoints, the bearer
// token as a plain string. The client keeps no session state of its own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/healthrepublic/republic/internal/log"
)

// RequestIDHeader carries a per-request id for correlating client and server logs.
const RequestIDHeader = "X-Request-ID"

// Client is the Health Republic API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *log.Logger
	observer   Observer
	userAgent  string
}

// Observer is told about every round trip that reached the transport.
// status is 0 when no response arrived.
type Observer interface {
	ObserveRequest(method, path string, status int, d time.Duration)
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRateLimit caps outgoing requests per second. A non-positive rps
// leaves the client unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithObserver reports request outcomes to o, e.g. a metrics recorder.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithUserAgent sets the User-Agent header, e.g. "republic/1.2.0".
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	c.logger = log.OrDefault(c.logger).With("component", "api")
	return c
}

// BaseURL returns the backend address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one round trip.
type call struct {
	method   string
	path     string
	token    string
	body     any
	out      any
	fallback string
}

// do performs the request and decodes a 2xx body into out.
// The response body is read as text first so that error responses can be
// surfaced verbatim.
func (c *Client) do(ctx context.Context, cl call) error {
	requestID := uuid.NewString()
	ctx = log.ContextWithRequestID(ctx, requestID)
	logger := c.logger.WithContext(ctx).With("method", cl.method, "path", cl.path)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{Kind: KindTransport, Method: cl.method, Path: cl.path, RequestID: requestID, Fallback: cl.fallback, Err: err}
		}
	}

	var reqBody io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(cl, 0, time.Since(start))
		logger.Debug("api request failed", "error", err, "duration", time.Since(start))
		return &Error{Kind: KindTransport, Method: cl.method, Path: cl.path, RequestID: requestID, Fallback: cl.fallback, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.observe(cl, resp.StatusCode, time.Since(start))
	if err != nil {
		return &Error{Kind: KindTransport, Method: cl.method, Path: cl.path, Status: resp.StatusCode, RequestID: requestID, Fallback: cl.fallback, Err: err}
	}
	logger.Debug("api request", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			Kind:      KindStatus,
			Method:    cl.method,
			Path:      cl.path,
			Status:    resp.StatusCode,
			Body:      string(raw),
			RequestID: requestID,
			Fallback:  cl.fallback,
		}
	}

	// Only endpoints without a result may answer with an empty body.
	if cl.out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		return &Error{Kind: KindDecode, Method: cl.method, Path: cl.path, Status: resp.StatusCode, Body: string(raw), RequestID: requestID, Fallback: cl.fallback, Err: err}
	}
	return nil
}

func (c *Client) observe(cl call, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(cl.method, cl.path, status, d)
	}
}
