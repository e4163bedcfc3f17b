// Package httpclient wraps net/http with default headers, logging and retries
// of idempotent requests on transient failures.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"time"

	"crontab/pkg/retry"
)

// Client wraps http.Client with logging and retries.
type Client struct {
	hc          *stdhttp.Client
	log         *slog.Logger
	retries     int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	headers     map[string]string
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = t }
}

// WithLogger sets logger used by client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRetries allows n extra attempts with exponential backoff starting at backoff.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = max(n, 0)
		if backoff > 0 {
			c.baseBackoff = backoff
		}
	}
}

// WithHeaders adds default headers to each request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// New creates configured Client.
func New(opts ...Option) *Client {
	tr := stdhttp.DefaultTransport.(*stdhttp.Transport).Clone()
	tr.TLSHandshakeTimeout = 10 * time.Second
	tr.ResponseHeaderTimeout = 10 * time.Second

	c := &Client{
		hc:          &stdhttp.Client{Timeout: 15 * time.Second, Transport: tr},
		log:         slog.Default(),
		baseBackoff: 200 * time.Millisecond,
		maxBackoff:  5 * time.Second,
		headers:     map[string]string{"User-Agent": "crontab"},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StatusError is a response status that is worth retrying.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

func retryableStatus(code int) bool {
	switch code {
	case stdhttp.StatusRequestTimeout, stdhttp.StatusTooManyRequests:
		return true
	default:
		return code >= 500
	}
}

func idempotent(method string) bool {
	switch method {
	case stdhttp.MethodGet, stdhttp.MethodHead, stdhttp.MethodOptions, stdhttp.MethodPut, stdhttp.MethodDelete:
		return true
	default:
		return false
	}
}

// Do sends the request. Idempotent requests whose body can be replayed are
// retried on network errors and on 408, 429 and 5xx responses. When attempts
// run out on a bad status, the last response is returned without an error so
// the caller can inspect it.
func (c *Client) Do(ctx context.Context, req *stdhttp.Request) (*stdhttp.Response, error) {
	retries := c.retries
	if !idempotent(req.Method) || (req.Body != nil && req.GetBody == nil) {
		retries = 0
	}
	u := req.URL.Redacted()

	var resp *stdhttp.Response
	attempt := 0
	cfg := retry.Config{
		MaxAttempts:  retries + 1,
		InitialDelay: c.baseBackoff,
		MaxDelay:     max(c.maxBackoff, c.baseBackoff),
		Jitter:       true,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			c.log.Warn("http request retry", slog.String("method", req.Method), slog.String("url", u),
				slog.Int("attempt", attempt), slog.Duration("wait", wait), slog.Any("error", err))
		},
	}

	err := retry.DoWithRetryable(ctx, cfg, func(ctx context.Context) error {
		attempt++
		r := req.Clone(ctx)
		for k, v := range c.headers {
			if r.Header.Get(k) == "" {
				r.Header.Set(k, v)
			}
		}
		if attempt > 1 && r.GetBody != nil {
			body, err := r.GetBody()
			if err != nil {
				return retry.Permanent(err)
			}
			r.Body = body
		}

		start := time.Now()
		res, err := c.hc.Do(r)
		if err != nil {
			return err
		}
		if retryableStatus(res.StatusCode) && attempt <= retries {
			drainAndClose(res.Body)
			return &StatusError{Method: r.Method, URL: u, Code: res.StatusCode}
		}
		c.log.Debug("http request", slog.String("method", r.Method), slog.String("url", u),
			slog.Int("status", res.StatusCode), slog.Duration("dur", time.Since(start)), slog.Int("attempt", attempt))
		resp = res
		return nil
	}, func(err error) bool {
		var se *StatusError
		return errors.As(err, &se) || retry.DefaultRetryable(err)
	})
	if err != nil {
		c.log.Warn("http request error", slog.String("method", req.Method), slog.String("url", u),
			slog.Int("attempts", attempt), slog.Any("error", err))
		return nil, err
	}
	return resp, nil
}

// Get is a shortcut for a GET request.
func (c *Client) Get(ctx context.Context, url string) (*stdhttp.Response, error) {
	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// drainAndClose drains up to 512KB from body and closes it.
func drainAndClose(b io.ReadCloser) {
	if b == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, b, 512<<10)
	_ = b.Close()
}
