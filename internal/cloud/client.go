// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jeranaias/orchat/internal/util"
)

const (
	// DefaultUserAgent identifies orchat to upstream services.
	DefaultUserAgent = "orchat/0.1.0"

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024
)

// Client issues JSON requests. It holds no per-request state and is safe
// for concurrent use.
type Client struct {
	httpClient      *http.Client
	userAgent       string
	maxResponseSize int64
	logger          *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxResponseSize overrides MaxResponseSize.
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseSize = n
		}
	}
}

// New returns a Client. The default *http.Client has no timeout; bound
// individual calls through their context.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:      &http.Client{},
		userAgent:       DefaultUserAgent,
		maxResponseSize: MaxResponseSize,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET to url and decodes the reply into out.
func (c *Client) GetJSON(ctx context.Context, op, url string, out Validator) error {
	return c.do(ctx, op, http.MethodGet, url, nil, out)
}

// PostJSON encodes in as the request body, POSTs it to url and decodes the
// reply into out.
func (c *Client) PostJSON(ctx context.Context, op, url string, in any, out Validator) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, op, http.MethodPost, url, body, out)
}

func (c *Client) do(ctx context.Context, op, method, url string, body []byte, out Validator) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &TransportError{Op: op, Method: method, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "method", method, "path", req.URL.Path,
			"duration", time.Since(start), "err", err)
		return &TransportError{Op: op, Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("response received", "op", op, "method", method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration", time.Since(start))

	data, err := c.readBody(resp)
	if err != nil {
		return &TransportError{Op: op, Method: method, URL: url, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{
			Op:      op,
			Method:  method,
			URL:     url,
			Status:  resp.StatusCode,
			Message: errorMessage(data),
			Err:     statusCause(resp.StatusCode),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &ParseError{Op: op, Err: err}
	}

	if err := out.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) && ve.Op == "" {
			ve.Op = op
		}
		return err
	}
	return nil
}

// readBody reads at most maxResponseSize bytes; a body that would exceed
// the cap is rejected rather than truncated.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > c.maxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", c.maxResponseSize)
	}
	return data, nil
}

// errorMessage extracts {"error":{"message":...}} or {"error":"..."} from an
// error body, falling back to the raw body on one line.
func errorMessage(body []byte) string {
	var structured struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &structured) == nil && structured.Error.Message != "" {
		return structured.Error.Message
	}

	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}

	return util.TruncateWidth(util.SingleLine(string(body)), 200)
}
