// Package upstream talks to the marketplace GraphQL endpoint.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/okian/momentproxy/internal/domain/model"
	"github.com/okian/momentproxy/internal/domain/policy"
	"github.com/okian/momentproxy/pkg/metrics"
)

// Defaults mirror a browser session on the marketplace itself.
const (
	DefaultURL            = "https://nbatopshot.com/marketplace/graphql"
	DefaultOrigin         = "https://nbatopshot.com"
	DefaultReferer        = "https://nbatopshot.com/search"
	DefaultUserAgent      = "TopShotGTLAGame/1.0"
	DefaultAcceptLanguage = "en-US,en;q=0.9"
	DefaultErrorBodyLimit = 200
	defaultTimeout        = 15 * time.Second
	maxResponseBytes      = 16 << 20
)

// Client posts GraphQL queries and decodes listing results.
type Client struct {
	url            string
	headers        http.Header
	httpClient     *http.Client
	errorBodyLimit int
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithURL sets the GraphQL endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

// WithHeader sets a request header sent with every query. An empty value
// removes the header.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value == "" {
			c.headers.Del(key)
			return
		}
		c.headers.Set(key, value)
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithErrorBodyLimit bounds how much of an error body is kept.
func WithErrorBodyLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.errorBodyLimit = n
		}
	}
}

// New creates a Client with browser-like default headers.
func New(opts ...Option) *Client {
	c := &Client{
		url:            DefaultURL,
		headers:        make(http.Header),
		httpClient:     &http.Client{Timeout: defaultTimeout},
		errorBodyLimit: DefaultErrorBodyLimit,
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")
	c.headers.Set("Origin", DefaultOrigin)
	c.headers.Set("Referer", DefaultReferer)
	c.headers.Set("User-Agent", DefaultUserAgent)
	c.headers.Set("Accept-Language", DefaultAcceptLanguage)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// requestBody is the GraphQL POST payload.
type requestBody struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Fetch runs q and returns the decoded items, possibly none.
func (c *Client) Fetch(ctx context.Context, q policy.Query) ([]model.RawListing, error) {
	start := time.Now()
	raws, err := c.fetch(ctx, q)
	metrics.RecordUpstreamRequest(q.Label, outcome(err), float64(time.Since(start).Milliseconds()))
	return raws, err
}

func (c *Client) fetch(ctx context.Context, q policy.Query) ([]model.RawListing, error) {
	payload := requestBody{Query: q.Text}
	if q.OperationName != "" {
		payload.OperationName = q.OperationName
		payload.Variables = q.Variables
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s query: %w", q.Label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", q.Label, err)
	}
	req.Header = c.headers.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s query: %w", ErrTransport, q.Label, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", ErrTransport, q.Label, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordUpstreamStatusError(resp.StatusCode)
		return nil, &StatusError{Status: resp.StatusCode, Body: truncate(data, c.errorBodyLimit)}
	}

	return model.DecodeAll(data, q.ItemsPath, q.Fields), nil
}

// truncate cuts b to at most n bytes without splitting a rune.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n])
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUpstreamStatus):
		return "status"
	default:
		return "transport"
	}
}
