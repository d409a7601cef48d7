// Package api is the typed HTTP client for the huddle backend. Each resource
// has its own interface so callers and tests can depend on only what they use.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"huddle/internal/constants"
)

type Client struct {
	baseURL          string
	httpClient       *http.Client
	userAgent        string
	maxResponseBytes int64
	logger           *slog.Logger
	auth             *AuthTransport
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTransport replaces the network transport underneath the auth and
// request-id layers.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.auth.Base = rt
	}
}

// NewClient returns a client rooted at baseURL. tokens may be nil for a client
// that only calls unauthenticated endpoints.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	auth := &AuthTransport{Base: http.DefaultTransport, Tokens: tokens}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   constants.DefaultHTTPTimeout,
			Transport: &RequestIDTransport{Base: auth},
		},
		auth:             auth,
		userAgent:        "huddle-client",
		maxResponseBytes: constants.DefaultMaxResponseBytes,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one call. body is JSON-encoded unless it is a rawBody.
type request struct {
	method string
	path   string
	query  url.Values
	actor  int64 // sent as User-Id when non-zero
	body   any
}

type rawBody struct {
	contentType string
	data        []byte
}

// do sends req and decodes a successful body into out. A nil out discards the
// body. Validation runs before anything touches the network.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	switch body := req.body.(type) {
	case nil:
	case rawBody:
		reader = bytes.NewReader(body.data)
		contentType = body.contentType
	default:
		if err := validateRequest(body); err != nil {
			return err
		}
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", req.method, req.path, err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if req.actor != 0 {
		httpReq.Header.Set(constants.HeaderUserID, strconv.FormatInt(req.actor, 10))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed", "method", req.method, "path", req.path, "error", err)
		return &TransportError{Method: req.method, Path: req.path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes))
	if err != nil {
		return &TransportError{Method: req.method, Path: req.path, Err: fmt.Errorf("reading body: %w", err)}
	}

	c.logger.Debug("request completed",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%s %s: %w", req.method, req.path, ErrEmptyResponse)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

func pathID(id int64) string {
	return strconv.FormatInt(id, 10)
}
